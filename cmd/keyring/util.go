package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/vulpemventures/keyring/internal/core/application"
	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/internal/core/ports"
	"golang.org/x/term"
)

type entryView struct {
	Address   string                 `json:"address"`
	PublicKey string                 `json:"publicKey"`
	KeyType   string                 `json:"keyType,omitempty"`
	IsLocked  bool                   `json:"isLocked"`
	Meta      map[string]interface{} `json:"meta"`
}

func newEntryView(entry application.SingleAddress) entryView {
	return entryView{
		Address:   entry.Address,
		PublicKey: hex.EncodeToString(entry.PublicKey),
		KeyType:   entry.KeyType,
		IsLocked:  entry.IsLocked,
		Meta:      entry.Meta,
	}
}

func newEntryViews(entries application.SingleAddresses) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, newEntryView(entry))
	}
	return views
}

func newPairView(pair *domain.Pair) entryView {
	return entryView{
		Address:   pair.Address(),
		PublicKey: hex.EncodeToString(pair.PublicKey()),
		KeyType:   pair.KeyType().String(),
		IsLocked:  pair.IsLocked(),
		Meta:      pair.Meta(),
	}
}

func printJSON(v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "   ")
	if err != nil {
		return fmt.Errorf("failed to serialize response: %s", err)
	}
	fmt.Println(string(buf))
	return nil
}

// readPassword reads a password from the terminal without echoing.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// readPasswordConfirm reads a password twice and ensures they match.
func readPasswordConfirm(prompt string) (string, error) {
	password, err := readPassword(prompt)
	if err != nil {
		return "", err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

// getPassword returns the password of the given account, looking in order at
// the flag value, the OS keychain and finally prompting the user.
func getPassword(address, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	password, err := passwordStore.Get(address)
	if err == nil {
		return password, nil
	}
	if !errors.Is(err, ports.ErrPasswordNotFound) {
		return "", err
	}
	return readPassword("Password: ")
}

func rememberPassword(address, password string) error {
	if err := passwordStore.Set(address, password); err != nil {
		return fmt.Errorf("failed to store password in OS keychain: %s", err)
	}
	return nil
}

// parseMeta turns a list of key=value args into meta entries. Values "true"
// and "false" are stored as booleans.
func parseMeta(args []string) (domain.Meta, error) {
	meta := domain.Meta{}
	for _, arg := range args {
		kv := strings.SplitN(arg, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("invalid meta entry %q, must be key=value", arg)
		}
		switch kv[1] {
		case "true":
			meta[kv[0]] = true
		case "false":
			meta[kv[0]] = false
		default:
			meta[kv[0]] = kv[1]
		}
	}
	return meta, nil
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func formatVersion() string {
	return fmt.Sprintf(
		"\nVersion: %s\nCommit: %s\nDate: %s", version, commit, date,
	)
}
