package chat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/khauni/homepage/pkg/config"
	"github.com/khauni/homepage/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount(t *testing.T, name, password string) Account {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)
	return Account{Name: name, Hash: hash}
}

func TestHubLoginHashRestoresAccount(t *testing.T) {
	acct := testAccount(t, "Khauni", "coffee-beans")
	_, srv, _ := startHub(t, Config{Accounts: []Account{acct}})
	conn, _ := dial(t, srv)

	send(t, conn, Inbound{Type: TypeLoginHash, Hash: acct.Hash})
	got := readFrame(t, conn)
	assert.Equal(t, TypeLoginSuccess, got.Type)
	assert.Equal(t, "Khauni", got.Name)
	assert.Equal(t, acct.Hash, got.HashedPassword)
	assert.Equal(t, nameSetPrefix+"Khauni", readFrame(t, conn).Message)

	send(t, conn, Inbound{Type: TypeChat, Message: "back again"})
	assert.Equal(t, "Khauni", readFrame(t, conn).Name)
}

func TestHubLoginHashUnknown(t *testing.T) {
	acct := testAccount(t, "Khauni", "coffee-beans")
	_, srv, _ := startHub(t, Config{Accounts: []Account{acct}})
	conn, guest := dial(t, srv)

	send(t, conn, Inbound{Type: TypeLoginHash, Hash: "$argon2id$v=19$m=8192,t=1,p=1$bm9wZQ$bm9wZQ"})
	got := readFrame(t, conn)
	assert.Equal(t, TypeSystem, got.Type)
	assert.Equal(t, hashFailedNotice, got.Message)

	send(t, conn, Inbound{Type: TypeChat, Message: "still a guest"})
	assert.Equal(t, guest, readFrame(t, conn).Name)
}

func TestHubLoginWithPassword(t *testing.T) {
	acct := testAccount(t, "Khauni", "coffee-beans")
	_, srv, _ := startHub(t, Config{Accounts: []Account{acct}})
	conn, _ := dial(t, srv)

	send(t, conn, Inbound{Type: TypeLogin, Name: "khauni", Password: "wrong"})
	assert.Equal(t, loginFailedNotice, readFrame(t, conn).Message)

	send(t, conn, Inbound{Type: TypeLogin, Name: "khauni", Password: "coffee-beans"})
	got := readFrame(t, conn)
	assert.Equal(t, TypeLoginSuccess, got.Type)
	assert.Equal(t, "Khauni", got.Name)
	assert.Equal(t, acct.Hash, got.HashedPassword)
}

func TestHubSetNameReservesAccounts(t *testing.T) {
	acct := testAccount(t, "Khauni", "coffee-beans")
	_, srv, _ := startHub(t, Config{Accounts: []Account{acct}})
	conn, _ := dial(t, srv)

	send(t, conn, Inbound{Type: TypeSetName, Name: "KHAUNI"})
	assert.Equal(t, reservedNotice, readFrame(t, conn).Message)

	send(t, conn, Inbound{Type: TypeLoginHash, Hash: acct.Hash})
	require.Equal(t, TypeLoginSuccess, readFrame(t, conn).Type)
	readFrame(t, conn)

	send(t, conn, Inbound{Type: TypeSetName, Name: "khauni"})
	assert.Equal(t, nameSetPrefix+"khauni", readFrame(t, conn).Message)
}

func TestHubSendsJSONPing(t *testing.T) {
	_, srv, _ := startHub(t, Config{PingInterval: 50 * time.Millisecond})
	conn, _ := dial(t, srv)

	before := time.Now().UnixMilli()
	got := readFrame(t, conn)
	require.Equal(t, TypePing, got.Type)

	var stamp int64
	require.NoError(t, json.Unmarshal(got.Timestamp, &stamp))
	assert.GreaterOrEqual(t, stamp, before-1000)
	assert.LessOrEqual(t, stamp, time.Now().UnixMilli())

	// Answering keeps the connection usable.
	send(t, conn, Inbound{Type: TypePong, Timestamp: got.Timestamp})
	send(t, conn, Inbound{Type: TypeChat, Message: "pong sent"})
	for {
		frame := readFrame(t, conn)
		if frame.Type == TypePing {
			continue
		}
		assert.Equal(t, "pong sent", frame.Message)
		break
	}
}

func TestLoadAccounts(t *testing.T) {
	dir := t.TempDir()

	accounts, err := LoadAccounts("")
	require.NoError(t, err)
	assert.Empty(t, accounts)

	accounts, err = LoadAccounts(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, accounts)

	path := filepath.Join(dir, "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":" Khauni ","hash":"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA"}]`), 0o600))
	accounts, err = LoadAccounts(path)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Khauni", accounts[0].Name)

	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Khauni"}]`), 0o600))
	_, err = LoadAccounts(path)
	assert.Error(t, err)
}
