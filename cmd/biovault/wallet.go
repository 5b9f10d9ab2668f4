package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// promptWallet 终端下的钱包提供方：--address 视为已连接，否则交互输入
type promptWallet struct {
	address string
	in      *bufio.Reader
	out     io.Writer
}

func (w *promptWallet) Connect(ctx context.Context) (string, error) {
	fmt.Fprint(w.out, "Wallet address\n> ")
	line, err := w.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	addr := strings.TrimSpace(line)
	if addr == "" {
		return "", errors.New("no wallet address entered")
	}
	w.address = addr
	return addr, nil
}

func (w *promptWallet) Address(ctx context.Context) (string, bool, error) {
	return w.address, w.address != "", nil
}

func (w *promptWallet) Disconnect(ctx context.Context) error {
	w.address = ""
	return nil
}
