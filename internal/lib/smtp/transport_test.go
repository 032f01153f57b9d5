package smtp

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/config"
)

func TestTransport_Sender(t *testing.T) {
	tr := NewTransport(config.SMTP{SMTPUser: "noreply@example.com"})
	assert.Equal(t, "noreply@example.com", tr.Sender())
}

func TestTransport_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	_, err = NewTransport(config.SMTP{SMTPHost: "127.0.0.1", SMTPPort: port}).Connect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.Connect")
}

func TestTransport_RequiresStartTLS(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 512)
		_, _ = conn.Write([]byte("220 localhost ESMTP\r\n"))
		_, _ = conn.Read(buf) // EHLO
		_, _ = conn.Write([]byte("250-localhost\r\n250 AUTH PLAIN\r\n"))
		_, _ = conn.Read(buf) // QUIT
		_, _ = conn.Write([]byte("221 bye\r\n"))
	}()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	_, err = NewTransport(config.SMTP{SMTPHost: "127.0.0.1", SMTPPort: port}).Connect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STARTTLS")
}
