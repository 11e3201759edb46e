package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/petopia/pipecodec/pipe"
	"github.com/spf13/cobra"
)

func (a *app) decodeCmd() *cobra.Command {
	var normalize bool
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a pipe block to JSON",
		Long: `Decodes a pipe block. If the text contains '|' the result is a list
of records, one per line. Otherwise all lines are merged into one record.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			v := a.codec.DecodeBlock(string(d))
			if normalize {
				v = a.codec.Normalize(v)
			}
			return a.writeValue(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Coerce string values to numbers, booleans and nested values")
	return cmd
}

func (a *app) encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode JSON (a record or a list of records) to a pipe block",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			v, err := pipe.ParseJSON(d)
			if err != nil {
				return fmt.Errorf("invalid JSON: %w", err)
			}
			var s string
			switch v.Kind() {
			case pipe.KindRecord:
				s = pipe.EncodeLine(v.Record())
			case pipe.KindList:
				s = a.codec.EncodeBlockValue(v)
			default:
				return fmt.Errorf("expected a record or a list of records, got %s", v.Kind())
			}
			_, err = io.WriteString(cmd.OutOrStdout(), s+"\n")
			return err
		},
	}
}

func (a *app) normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file]",
		Short: "Coerce string values in JSON to their natural types",
		Long: `Recursively converts strings that look like pipe blocks, JSON,
booleans ("TRUE", "false") or numbers into those values.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			v, err := pipe.ParseJSON(d)
			if err != nil {
				return fmt.Errorf("invalid JSON: %w", err)
			}
			return a.writeValue(cmd.OutOrStdout(), a.codec.Normalize(v))
		},
	}
}

func (a *app) valueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "value <token>",
		Short: "Parse a single value token and print its type and value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := a.codec.ParseValue(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ", v.Kind())
			return a.writeValue(cmd.OutOrStdout(), v)
		},
	}
}

// recordsFromInput accepts a JSON list of records or a pipe block
func (a *app) recordsFromInput(d []byte) []*pipe.Record {
	s := strings.TrimSpace(string(d))
	if strings.HasPrefix(s, "[") {
		if v, err := pipe.ParseJSON([]byte(s)); err == nil && v.Kind() == pipe.KindList {
			var res []*pipe.Record
			for _, el := range v.Items() {
				if rec := el.Record(); rec != nil {
					res = append(res, rec)
				}
			}
			return res
		}
	}
	return a.codec.DecodeRecords(s)
}

func (a *app) lookupCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "lookup --key <key> [file]",
		Short: "Find value of a key in a list of {key, value} records",
		Long: `Finds the first record whose "key" field equals --key and prints
its "value" field. A value that is a JSON array in text form is parsed.
Input is a JSON list or a pipe block.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			v, ok := a.codec.LookupByKey(a.recordsFromInput(d), key)
			if !ok {
				return fmt.Errorf("key '%s' not found", key)
			}
			return a.writeValue(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Key to look up (required)")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
