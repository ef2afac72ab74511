// Package main implements dbacli, a small command-line surface for ad hoc
// querying and geometry inspection against this module's core. It is a
// thin wrapper over the core (Conn/Rows, geom.Decode) and imports every
// adapter package for its registration side effect, the same blank-import
// convention database/sql drivers themselves use.
//
// A CLI surface is explicitly out of scope for the core module itself
// (spec.md §1), so dbacli lives under cmd/ and only ever imports the core,
// never the reverse.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/imqs/dba"
	_ "github.com/imqs/dba/driver/hana"
	_ "github.com/imqs/dba/driver/mssql"
	_ "github.com/imqs/dba/driver/postgres"
	_ "github.com/imqs/dba/driver/sqlite"
	"github.com/imqs/dba/geom"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dbacli",
		Short: "Ad hoc querying and geometry inspection",
	}

	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(geomCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type queryFlags struct {
	dbType string
	link   string
}

func queryCmd() *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a SQL statement against a configured connection and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runQuery(args[0], flags)
		},
	}
	cmd.Flags().StringVar(&flags.dbType, "type", "postgres", "adapter type: postgres, sqlite, mssql, hana")
	cmd.Flags().StringVar(&flags.link, "dsn", "", "connection string (required)")
	return cmd
}

func runQuery(sql string, flags *queryFlags) error {
	if flags.link == "" {
		return fmt.Errorf("--dsn is required")
	}
	dba.AddConfigNode(dba.DefaultGroupName, dba.ConfigNode{Type: flags.dbType, LinkInfo: flags.link, Role: "master"})

	conn, err := dba.Open(dba.DefaultGroupName)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer conn.Close()

	ctx := context.Background()
	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	cols := rows.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))

	n := 0
	for rows.Next(ctx) {
		vals := make([]string, len(cols))
		for i := range cols {
			v := rows.Row(i)
			vals[i] = v.ToText()
		}
		fmt.Fprintln(w, strings.Join(vals, "\t"))
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading rows: %w", err)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("(%d rows)\n", n)
	return nil
}

func geomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geom <hex-wkb>",
		Short: "Decode a hex-encoded WKB/EWKB blob and print its structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runGeom(args[0])
		},
	}
	return cmd
}

func runGeom(hexStr string) error {
	buf, err := hex.DecodeString(strings.TrimSpace(hexStr))
	if err != nil {
		return fmt.Errorf("decoding hex: %w", err)
	}
	v, typ, err := geom.Decode(buf)
	if err != nil {
		return fmt.Errorf("decoding geometry: %w", err)
	}
	fmt.Printf("type:   %s\n", typ)
	fmt.Printf("srid:   %d\n", v.Header.SRID)
	fmt.Printf("dims:   %d\n", v.Flags.Dimensions())
	if v.IsPoly() {
		fmt.Printf("parts:  %d\n", v.NumParts())
		for i := 0; i < v.NumParts(); i++ {
			start, end, closed, exterior := v.Part(i)
			fmt.Printf("  part %d: vertices %d..%d closed=%v exterior=%v\n", i, start, end, closed, exterior)
		}
	} else {
		fmt.Printf("vertices: %d\n", v.TotalVertexCount())
	}
	return nil
}
