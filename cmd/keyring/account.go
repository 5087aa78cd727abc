package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

var (
	accountName     string
	accountMnemonic string
	accountSeed     string
	accountPassword string
	accountTesting  bool
	remember        bool
	backupOut       string
	signMessage     string

	accountCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "create a new account",
		Long: "this command lets you create a new account from the given mnemonic " +
			"or hex seed (or let me create a mnemonic for you), encrypted with " +
			"your choosen password",
		RunE: accountCreate,
	}
	accountRestoreCmd = &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "restore an account from backup",
		Long: "this command lets you import an account from a json backup, " +
			"provided you know the passphrase used to encrypt it",
		Args: cobra.ExactArgs(1),
		RunE: accountRestore,
	}
	accountBackupCmd = &cobra.Command{
		Use:   "backup <address>",
		Short: "export an account as json",
		Long: "this command lets you export the given account as a json backup " +
			"encrypted with its current password",
		Args: cobra.ExactArgs(1),
		RunE: accountBackup,
	}
	accountForgetCmd = &cobra.Command{
		Use:   "forget <address>",
		Short: "delete an account",
		Long: "this command lets you delete an account from the keyring. Make " +
			"sure to have a backup, the operation cannot be undone",
		Args: cobra.ExactArgs(1),
		RunE: accountForget,
	}
	accountPasswdCmd = &cobra.Command{
		Use:   "passwd <address>",
		Short: "change the password of an account",
		Long:  "this command lets you change the encryption password of an account",
		Args:  cobra.ExactArgs(1),
		RunE:  accountPasswd,
	}
	accountMetaCmd = &cobra.Command{
		Use:   "meta <address> [key=value...]",
		Short: "edit the metadata of an account",
		Long: "this command lets you add or edit entries of the metadata of " +
			"an account, like its name",
		Args: cobra.MinimumNArgs(1),
		RunE: accountMeta,
	}
	accountSignCmd = &cobra.Command{
		Use:   "sign <address>",
		Short: "sign a message",
		Long:  "this command lets you sign the given message with an account",
		Args:  cobra.ExactArgs(1),
		RunE:  accountSign,
	}
	accountListCmd = &cobra.Command{
		Use:   "list",
		Short: "list accounts",
		Long:  "this command returns the list of the accounts of the keyring",
		RunE:  accountList,
	}
	accountCmd = &cobra.Command{
		Use:   "account",
		Short: "manage keyring accounts",
		Long: "this command lets you create, restore, backup or delete accounts, " +
			"change their password or metadata and sign messages",
	}
)

func init() {
	accountCreateCmd.Flags().StringVar(
		&accountMnemonic, "mnemonic", "", "space separated word list as account seed",
	)
	accountCreateCmd.Flags().StringVar(
		&accountSeed, "seed", "", "32-byte hex seed, alternative to mnemonic",
	)
	accountCreateCmd.Flags().StringVar(&accountName, "name", "", "account name")
	accountCreateCmd.Flags().BoolVar(
		&accountTesting, "testing", false, "flag the account as testing",
	)
	accountBackupCmd.Flags().StringVarP(
		&backupOut, "out", "o", "", "file where to write the backup, stdout if omitted",
	)
	accountSignCmd.Flags().StringVarP(&signMessage, "message", "m", "", "message to sign")
	//nolint:errcheck
	accountSignCmd.MarkFlagRequired("message")

	for _, cmd := range []*cobra.Command{
		accountCreateCmd, accountRestoreCmd, accountBackupCmd, accountPasswdCmd,
		accountSignCmd,
	} {
		cmd.Flags().StringVar(
			&accountPassword, "password", "", "account password, prompted if omitted",
		)
	}
	for _, cmd := range []*cobra.Command{
		accountCreateCmd, accountRestoreCmd, accountPasswdCmd,
	} {
		cmd.Flags().BoolVar(
			&remember, "remember", false, "store the password in the OS keychain",
		)
	}

	accountCmd.AddCommand(
		accountCreateCmd, accountRestoreCmd, accountBackupCmd, accountForgetCmd,
		accountPasswdCmd, accountMetaCmd, accountSignCmd, accountListCmd,
	)
}

func accountCreate(cmd *cobra.Command, _ []string) error {
	if accountMnemonic != "" && accountSeed != "" {
		return fmt.Errorf("mnemonic and seed are mutually exclusive")
	}

	ctx := context.Background()
	password := accountPassword
	if password == "" {
		var err error
		if password, err = readPasswordConfirm("Password: "); err != nil {
			return err
		}
	}

	meta := domain.Meta{}
	if accountName != "" {
		meta[domain.MetaName] = accountName
	}
	if accountTesting {
		meta[domain.MetaIsTesting] = true
	}

	var (
		pair     *domain.Pair
		mnemonic []string
		err      error
	)
	switch {
	case accountSeed != "":
		seed, err := hex.DecodeString(strings.TrimPrefix(accountSeed, "0x"))
		if err != nil {
			return fmt.Errorf("invalid seed, must be in hex format")
		}
		pair, err = keyring.CreateAccount(ctx, seed, password, meta)
		if err != nil {
			return err
		}
	default:
		mnemonic = strings.Fields(accountMnemonic)
		if len(mnemonic) == 0 {
			if mnemonic, err = keyring.GenSeed(ctx); err != nil {
				return err
			}
		}
		pair, err = keyring.CreateAccountFromMnemonic(ctx, mnemonic, password, meta)
		if err != nil {
			return err
		}
	}

	if remember {
		if err := rememberPassword(pair.Address(), password); err != nil {
			return err
		}
	}

	reply := map[string]interface{}{"account": newPairView(pair)}
	if accountMnemonic == "" && len(mnemonic) > 0 {
		reply["mnemonic"] = strings.Join(mnemonic, " ")
	}
	return printJSON(reply)
}

func accountRestore(cmd *cobra.Command, args []string) error {
	buf, err := os.ReadFile(cleanAndExpandPath(args[0]))
	if err != nil {
		return fmt.Errorf("failed to read backup: %s", err)
	}

	passphrase := accountPassword
	if passphrase == "" {
		if passphrase, err = readPassword("Backup passphrase: "); err != nil {
			return err
		}
	}

	ok, err := keyring.RestoreAccount(context.Background(), buf, passphrase)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("failed to restore account, invalid backup or passphrase")
	}

	backup, err := keypair.ParsePairJSON(buf)
	if err != nil {
		return err
	}
	if remember {
		if err := rememberPassword(backup.Address, passphrase); err != nil {
			return err
		}
	}

	pair, err := keyring.GetPair(backup.Address)
	if err != nil {
		return err
	}
	return printJSON(newPairView(pair))
}

func accountBackup(cmd *cobra.Command, args []string) error {
	address := args[0]
	password, err := getPassword(address, accountPassword)
	if err != nil {
		return err
	}

	backup, err := keyring.BackupAccount(context.Background(), address, password)
	if err != nil {
		return err
	}
	if backup == nil {
		return domain.ErrPairNotFound
	}

	buf, err := backup.Serialize()
	if err != nil {
		return err
	}
	if backupOut == "" {
		fmt.Println(string(buf))
		return nil
	}
	if err := os.WriteFile(cleanAndExpandPath(backupOut), buf, 0600); err != nil {
		return fmt.Errorf("failed to write backup: %s", err)
	}
	fmt.Printf("backup written to %s\n", backupOut)
	return nil
}

func accountForget(cmd *cobra.Command, args []string) error {
	address := args[0]
	if err := keyring.ForgetAccount(context.Background(), address); err != nil {
		return err
	}
	if err := passwordStore.Delete(address); err != nil {
		return err
	}

	fmt.Printf("account %s has been deleted\n", address)
	return nil
}

func accountPasswd(cmd *cobra.Command, args []string) error {
	address := args[0]
	oldPassword, err := getPassword(address, accountPassword)
	if err != nil {
		return err
	}
	newPassword, err := readPasswordConfirm("New password: ")
	if err != nil {
		return err
	}

	ok, err := keyring.ChangeAccountPassword(
		context.Background(), address, oldPassword, newPassword,
	)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidPassword
	}

	if _, err := passwordStore.Get(address); err == nil || remember {
		if err := rememberPassword(address, newPassword); err != nil {
			return err
		}
	}

	fmt.Println("password has been changed")
	return nil
}

func accountMeta(cmd *cobra.Command, args []string) error {
	address := args[0]
	meta, err := parseMeta(args[1:])
	if err != nil {
		return err
	}

	pair, err := keyring.GetPair(address)
	if err != nil {
		return err
	}
	if len(meta) > 0 {
		if err := keyring.SaveAccountMeta(context.Background(), pair, meta); err != nil {
			return err
		}
	}
	return printJSON(newPairView(pair))
}

func accountSign(cmd *cobra.Command, args []string) error {
	address := args[0]
	password, err := getPassword(address, accountPassword)
	if err != nil {
		return err
	}

	sig, err := keyring.Sign(address, password, []byte(signMessage))
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"address":   address,
		"signature": hex.EncodeToString(sig),
	})
}

func accountList(cmd *cobra.Command, _ []string) error {
	return printJSON(newEntryViews(keyring.GetAccounts()))
}
