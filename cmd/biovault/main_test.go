package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biovault/internal/apiserver/auth"
	"biovault/internal/apiserver/metrics"
	"biovault/internal/apiserver/server"
	"biovault/internal/apiserver/user"
	"biovault/internal/client/apiclient"
	"biovault/internal/client/session"
	"biovault/internal/client/tokenstore"
	"biovault/internal/shared/storage/memstore"
	"biovault/pkg/logging"
)

func newServer(t *testing.T) *apiclient.Client {
	t.Helper()
	store := memstore.New()
	issuer, err := auth.NewIssuer("cli-secret", time.Hour)
	require.NoError(t, err)
	logger := logging.NewWithWriter(logging.Config{Level: "error"}, io.Discard)
	m := metrics.New("biovault", prometheus.NewRegistry())

	h := server.NewHandler(server.Deps{
		Store:   store,
		Users:   user.NewService(store, issuer, user.Options{Logger: logger}),
		Gate:    auth.NewGatekeeper(issuer, m),
		Metrics: m,
		Logger:  logger,
	})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL, srv.Client())
}

func TestConnect_EndToEnd(t *testing.T) {
	client := newServer(t)
	tokens := tokenstore.NewFileStore(filepath.Join(t.TempDir(), "token"))
	ctx := context.Background()

	wallet := &promptWallet{address: "0xRES", in: bufio.NewReader(strings.NewReader("")), out: io.Discard}
	ctrl := session.New(wallet, client, tokens)

	var out bytes.Buffer
	require.NoError(t, connect(ctx, ctrl, "researcher", nil, &out))
	assert.Contains(t, out.String(), "Connected as 0xRES (researcher)")
	assert.Contains(t, out.String(), "Genomic Data Set A")

	tok, err := tokens.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	// 再次连接同一钱包：直接进入面板，--role 被忽略
	wallet = &promptWallet{address: "0xRES", in: bufio.NewReader(strings.NewReader("")), out: io.Discard}
	ctrl = session.New(wallet, client, tokens)
	out.Reset()
	require.NoError(t, connect(ctx, ctrl, "patient", nil, &out))
	assert.Contains(t, out.String(), "(researcher)")
}

func TestConnect_PromptsForAddress(t *testing.T) {
	client := newServer(t)
	ctx := context.Background()

	wallet := &promptWallet{in: bufio.NewReader(strings.NewReader("0xPAT\n")), out: io.Discard}
	ctrl := session.New(wallet, client, nil)

	var out bytes.Buffer
	require.NoError(t, connect(ctx, ctrl, "patient", nil, &out))
	assert.Contains(t, out.String(), "Patient dashboard")
}

func TestLookup(t *testing.T) {
	client := newServer(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, lookup(ctx, client, "0xNOBODY", &out))
	assert.Contains(t, out.String(), "0xNOBODY is not registered")

	_, err := client.Register(ctx, "0xABC", "patient")
	require.NoError(t, err)
	out.Reset()
	require.NoError(t, lookup(ctx, client, "0xABC", &out))
	assert.Contains(t, out.String(), "0xABC registered as patient")

	assert.Error(t, lookup(ctx, client, "", &out))
}

func TestPromptWallet(t *testing.T) {
	w := &promptWallet{in: bufio.NewReader(strings.NewReader("  0xA  \n")), out: io.Discard}
	_, ok, _ := w.Address(context.Background())
	assert.False(t, ok)

	addr, err := w.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xA", addr)

	require.NoError(t, w.Disconnect(context.Background()))
	_, ok, _ = w.Address(context.Background())
	assert.False(t, ok)

	empty := &promptWallet{in: bufio.NewReader(strings.NewReader("\n")), out: io.Discard}
	_, err = empty.Connect(context.Background())
	assert.Error(t, err)
}
