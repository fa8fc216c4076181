package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/indigo-web/webserv/resolver"
	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

// effectiveView is the printable form of resolver.Effective.
type effectiveView struct {
	Server            int      `json:"server"`
	Target            string   `json:"target"`
	Location          string   `json:"location"`
	Modifier          string   `json:"modifier"`
	Root              string   `json:"root"`
	ClientMaxBodySize int64    `json:"client_max_body_size"`
	AutoIndex         bool     `json:"autoindex"`
	Index             []string `json:"index,omitempty"`
	AllowMethods      []string `json:"allow_methods,omitempty"`
}

func newResolveCmd(opts *options) *cobra.Command {
	var (
		server int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "resolve TARGET",
		Short: "Print the effective configuration of a request path",
		Example: `  webserv resolve --config webserv.yaml /images/logo.png
  webserv resolve --config webserv.yaml --server 1 --json /upload`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := opts.load()
			if err != nil {
				return err
			}

			if !slices.Contains(store.Indices(), server) {
				return fmt.Errorf("server %d is not declared", server)
			}

			effective := resolver.New(store, server, cfg.Resolver.Mode).
				Resolve(resolver.CleanTarget(args[0]))

			view := effectiveView{
				Server:            server,
				Target:            effective.Target,
				Location:          effective.Location,
				Modifier:          effective.Modifier.String(),
				Root:              effective.Root,
				ClientMaxBodySize: effective.ClientMaxBodySize,
				AutoIndex:         effective.AutoIndex,
				Index:             effective.Lookup("index"),
				AllowMethods:      effective.Lookup("allow_methods"),
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), view)
			}

			printView(cmd.OutOrStdout(), view)
			return nil
		},
	}

	cmd.Flags().IntVarP(&server, "server", "s", 0, "Index of the virtual server")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

func printJSON(w io.Writer, view effectiveView) error {
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printView(w io.Writer, view effectiveView) {
	fmt.Fprintf(w, "server:               %d\n", view.Server)
	fmt.Fprintf(w, "target:               %s\n", view.Target)
	fmt.Fprintf(w, "location:             %s\n", view.Location)
	fmt.Fprintf(w, "modifier:             %s\n", view.Modifier)
	fmt.Fprintf(w, "root:                 %s\n", view.Root)
	fmt.Fprintf(w, "client_max_body_size: %d\n", view.ClientMaxBodySize)
	fmt.Fprintf(w, "autoindex:            %t\n", view.AutoIndex)

	if len(view.Index) > 0 {
		fmt.Fprintf(w, "index:                %v\n", view.Index)
	}

	if len(view.AllowMethods) > 0 {
		fmt.Fprintf(w, "allow_methods:        %v\n", view.AllowMethods)
	}
}
