package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/indigo-web/webserv/confdb"
	"github.com/indigo-web/webserv/resolver"
	"github.com/spf13/cobra"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the directive database and print its servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, store, err := opts.load()
			if err != nil {
				return err
			}

			printStore(cmd.OutOrStdout(), store)
			return nil
		},
	}
}

func printStore(w io.Writer, store *confdb.Store) {
	if len(store.Root) > 0 {
		fmt.Fprintln(w, "http:")
		for _, entry := range store.Root {
			printEntry(w, "  ", entry)
		}
	}

	for _, index := range store.Indices() {
		fmt.Fprintf(w, "server %d (listen %s):\n", index, strings.Join(resolver.Listen(store, index), ", "))

		for _, entry := range store.Server(index) {
			indent := "  "
			if len(entry.Location) > 0 {
				indent = "  " + entry.Location + ": "
			}

			printEntry(w, indent, entry)
		}
	}
}

func printEntry(w io.Writer, indent string, entry confdb.Entry) {
	fmt.Fprintf(w, "%s%s %s\n", indent, entry.Directive, strings.Join(entry.Values, " "))
}
