package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vulpemventures/keyring/internal/core/domain"
)

var (
	addressName    string
	addressTesting bool

	addressSaveCmd = &cobra.Command{
		Use:   "save <address> [key=value...]",
		Short: "save an address to the address book",
		Long: "this command lets you add an address to the address book, or edit " +
			"the metadata of an existing one",
		Args: cobra.MinimumNArgs(1),
		RunE: addressSave,
	}
	addressRecentCmd = &cobra.Command{
		Use:   "recent <address>",
		Short: "mark an address as recently used",
		Long: "this command lets you mark an address as recently used, adding " +
			"it to the address book if unknown",
		Args: cobra.ExactArgs(1),
		RunE: addressRecent,
	}
	addressForgetCmd = &cobra.Command{
		Use:   "forget <address>",
		Short: "delete an address from the address book",
		Long:  "this command lets you delete an address from the address book",
		Args:  cobra.ExactArgs(1),
		RunE:  addressForget,
	}
	addressShowCmd = &cobra.Command{
		Use:   "show <address>",
		Short: "show an address of the address book",
		Long:  "this command returns the metadata of an address of the address book",
		Args:  cobra.ExactArgs(1),
		RunE:  addressShow,
	}
	addressAvailableCmd = &cobra.Command{
		Use:   "available <address-or-pubkey>",
		Short: "check if an address is unknown",
		Long: "this command returns whether the given address, or hex public " +
			"key, is neither an account nor saved in the address book",
		Args: cobra.ExactArgs(1),
		RunE: addressAvailable,
	}
	addressListCmd = &cobra.Command{
		Use:   "list",
		Short: "list the address book",
		Long:  "this command returns the list of the addresses of the address book",
		RunE:  addressList,
	}
	addressCmd = &cobra.Command{
		Use:   "address",
		Short: "manage the address book",
		Long: "this command lets you save, edit or delete the addresses of the " +
			"address book, and list them",
	}
)

func init() {
	addressSaveCmd.Flags().StringVar(&addressName, "name", "", "address name")
	addressSaveCmd.Flags().BoolVar(
		&addressTesting, "testing", false, "flag the address as testing",
	)

	addressCmd.AddCommand(
		addressSaveCmd, addressRecentCmd, addressForgetCmd, addressShowCmd,
		addressAvailableCmd, addressListCmd,
	)
}

func addressSave(cmd *cobra.Command, args []string) error {
	address := args[0]
	meta, err := parseMeta(args[1:])
	if err != nil {
		return err
	}
	if addressName != "" {
		meta[domain.MetaName] = addressName
	}
	if addressTesting {
		meta[domain.MetaIsTesting] = true
	}

	if err := keyring.SaveAddress(context.Background(), address, meta); err != nil {
		return err
	}
	return addressShow(cmd, args[:1])
}

func addressRecent(cmd *cobra.Command, args []string) error {
	entry, err := keyring.SaveRecent(context.Background(), args[0])
	if err != nil {
		return err
	}
	return printJSON(newEntryView(*entry))
}

func addressForget(cmd *cobra.Command, args []string) error {
	address := args[0]
	if err := keyring.ForgetAddress(context.Background(), address); err != nil {
		return err
	}

	fmt.Printf("address %s has been deleted\n", address)
	return nil
}

func addressShow(cmd *cobra.Command, args []string) error {
	entry, err := keyring.GetAddress(args[0])
	if err != nil {
		return err
	}
	return printJSON(newEntryView(*entry))
}

func addressAvailable(cmd *cobra.Command, args []string) error {
	return printJSON(map[string]bool{
		"available": keyring.IsAvailable(args[0]),
	})
}

func addressList(cmd *cobra.Command, _ []string) error {
	return printJSON(newEntryViews(keyring.GetAddresses()))
}
