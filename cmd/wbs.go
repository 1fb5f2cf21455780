package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/ephemeris/internal/config"
	"github.com/papapumpkin/ephemeris/internal/wbs"
)

var wbsCmd = &cobra.Command{
	Use:   "wbs",
	Short: "Print the work breakdown structure numbering",
	RunE:  runWBS,
}

func init() {
	rootCmd.AddCommand(wbsCmd)
}

func runWBS(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	r := newRenderer(cfg, nil)

	p, err := loadProject(cfg, r)
	if err != nil {
		return err
	}

	codes := wbs.Assign(p.Tasks)

	type row struct{ code, id, name string }
	rows := make([]row, 0, len(codes))
	names := make(map[string]string, len(p.Tasks))
	for _, t := range p.Tasks {
		names[t.ID] = t.Name
	}
	for id, code := range codes {
		rows = append(rows, row{code: code, id: id, name: names[id]})
	}
	sort.Slice(rows, func(i, j int) bool { return lessWBS(rows[i].code, rows[j].code) })

	for _, rw := range rows {
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-14s %s\n", rw.code, rw.id, rw.name)
	}
	return nil
}

// lessWBS orders dotted codes numerically component by component, so
// "1.10" sorts after "1.9" instead of between "1.1" and "1.2".
func lessWBS(a, b string) bool {
	av, bv := splitWBS(a), splitWBS(b)
	for i := 0; i < len(av) && i < len(bv); i++ {
		if av[i] != bv[i] {
			return av[i] < bv[i]
		}
	}
	return len(av) < len(bv)
}

func splitWBS(code string) []int {
	var parts []int
	n := 0
	for i := 0; i <= len(code); i++ {
		if i == len(code) || code[i] == '.' {
			parts = append(parts, n)
			n = 0
			continue
		}
		n = n*10 + int(code[i]-'0')
	}
	return parts
}
