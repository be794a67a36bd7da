package chat

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/khauni/homepage/pkg/jsonfile"
	"github.com/khauni/homepage/pkg/security"
)

// Account is a registered chat name. Hash is an argon2id string produced by
// `homepagectl hash-password`; browsers keep it as their remembered login.
type Account struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// LoadAccounts reads the accounts document at path. An empty path or a missing
// file yields no accounts.
func LoadAccounts(path string) ([]Account, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	var accounts []Account
	if err := jsonfile.Read(path, &accounts); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, jsonfile.ErrEmpty) {
			return nil, nil
		}
		return nil, fmt.Errorf("load chat accounts: %w", err)
	}
	out := accounts[:0]
	for _, acct := range accounts {
		acct.Name = clip(acct.Name, maxNameLength)
		acct.Hash = strings.TrimSpace(acct.Hash)
		if acct.Name == "" || acct.Hash == "" {
			return nil, fmt.Errorf("load chat accounts: entry %q needs both name and hash", acct.Name)
		}
		out = append(out, acct)
	}
	return out, nil
}

func (h *Hub) accountByName(name string) (Account, bool) {
	for _, acct := range h.cfg.Accounts {
		if strings.EqualFold(acct.Name, name) {
			return acct, true
		}
	}
	return Account{}, false
}

// accountByHash walks every account so the comparison time does not depend on
// which entry matched.
func (h *Hub) accountByHash(hash string) (Account, bool) {
	var (
		found Account
		ok    bool
	)
	for _, acct := range h.cfg.Accounts {
		if subtle.ConstantTimeCompare([]byte(acct.Hash), []byte(hash)) == 1 {
			found, ok = acct, true
		}
	}
	return found, ok
}

func (h *Hub) checkPassword(name, password string) (Account, bool) {
	acct, ok := h.accountByName(name)
	if !ok || password == "" {
		return Account{}, false
	}
	match, err := security.VerifyPassword(password, acct.Hash)
	if err != nil || !match {
		return Account{}, false
	}
	return acct, true
}
