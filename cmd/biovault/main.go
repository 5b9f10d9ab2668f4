// Package main BioVault 终端客户端
//
// 用法：
//
//	biovault [flags] connect        连接钱包、登录或注册，并显示对应角色的面板
//	biovault [flags] lookup <addr>  查询地址的注册信息
//	biovault [flags] logout         清除本地令牌
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"biovault/internal/client/apiclient"
	"biovault/internal/client/session"
	"biovault/internal/client/tokenstore"
	"biovault/internal/shared/model"
)

func main() {
	server := flag.String("server", envOr("BIOVAULT_API_URL", "http://localhost:5000"), "API 服务地址")
	address := flag.String("address", "", "钱包地址（为空时交互输入）")
	role := flag.String("role", "", "未注册时使用的角色：patient 或 researcher")
	tokenFile := flag.String("token-file", "", "令牌文件路径（默认用户配置目录）")
	flag.Usage = usage
	flag.Parse()

	log.SetFlags(0)

	path := *tokenFile
	if path == "" {
		p, err := tokenstore.DefaultPath()
		if err != nil {
			log.Fatalf("Cannot resolve token path: %v", err)
		}
		path = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := bufio.NewReader(os.Stdin)
	client := apiclient.New(*server, nil)
	wallet := &promptWallet{address: strings.TrimSpace(*address), in: in, out: os.Stdout}
	ctrl := session.New(wallet, client, tokenstore.NewFileStore(path))

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "connect"
	}

	var err error
	switch cmd {
	case "connect":
		err = connect(ctx, ctrl, *role, in, os.Stdout)
	case "lookup":
		err = lookup(ctx, client, flag.Arg(1), os.Stdout)
	case "logout":
		if err = ctrl.Logout(ctx); err == nil {
			fmt.Println("Logged out.")
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: biovault [flags] connect|lookup <address>|logout\n\n")
	flag.PrintDefaults()
}

// connect 规范流程：总是先确认注册状态，再进入面板
func connect(ctx context.Context, ctrl *session.Controller, role string, in *bufio.Reader, out io.Writer) error {
	state, err := ctrl.Resume(ctx)
	if err != nil {
		return err
	}
	if state == session.StateDisconnected {
		if state, err = ctrl.Connect(ctx); err != nil {
			return err
		}
	}

	if state == session.StateAwaitingRole {
		if role == "" {
			if role, err = promptRole(in, out, ctrl.Address()); err != nil {
				return err
			}
		}
		if _, err = ctrl.ChooseRole(ctx, role); err != nil {
			return err
		}
	}

	u, ok := ctrl.User()
	if !ok {
		return errors.New("not authenticated")
	}
	return dashboard(ctx, ctrl, u, out)
}

func dashboard(ctx context.Context, ctrl *session.Controller, u model.User, out io.Writer) error {
	fmt.Fprintf(out, "Connected as %s (%s)\n", u.WalletAddress, u.Role)

	if u.Role != model.UserRoleResearcher {
		fmt.Fprintln(out, "Patient dashboard: your data stays encrypted until you grant access.")
		return nil
	}

	items, err := ctrl.ProtectedData(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Researcher dashboard: available datasets")
	for _, d := range items {
		fmt.Fprintf(out, "  %-4s %-32s %s\n", d.ID, d.Name, d.Owner)
	}
	return nil
}

func lookup(ctx context.Context, client *apiclient.Client, address string, out io.Writer) error {
	if address == "" {
		return errors.New("lookup requires an address")
	}
	u, err := client.Lookup(ctx, address)
	if err != nil {
		return err
	}
	if u == nil {
		fmt.Fprintf(out, "%s is not registered\n", address)
		return nil
	}
	fmt.Fprintf(out, "%s registered as %s at %s\n", u.WalletAddress, u.Role, u.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// promptRole 非终端输入时不提示，要求显式 --role
func promptRole(in *bufio.Reader, out io.Writer, address string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("wallet is not registered; pass --role patient|researcher")
	}
	fmt.Fprintf(out, "%s is not registered. Choose a role [patient/researcher]\n> ", address)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
