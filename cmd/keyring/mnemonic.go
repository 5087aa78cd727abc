package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var mnemonicCmd = &cobra.Command{
	Use:   "mnemonic",
	Short: "generate a random mnemonic",
	Long: "this command lets you generate a new random 24-words mnemonic to " +
		"create a new account from",
	RunE: genMnemonic,
}

func genMnemonic(cmd *cobra.Command, _ []string) error {
	mnemonic, err := keyring.GenSeed(context.Background())
	if err != nil {
		return err
	}

	fmt.Println(strings.Join(mnemonic, " "))
	return nil
}
