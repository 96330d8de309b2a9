package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func tourCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tour <archetype>",
		Short: "Print the guided tour of an archetype",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTour(args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the stops as JSON")
	return cmd
}

func runTour(id string, asJSON bool) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	arch, ok := a.catalogue.Archetype(id)
	if !ok {
		return fmt.Errorf("unknown archetype %q", id)
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(arch.Stops)
	}
	if len(arch.Stops) == 0 {
		fmt.Fprintf(os.Stdout, "%s has no tour.\n", arch.Title)
		return nil
	}

	for i, st := range arch.Stops {
		fmt.Fprintf(os.Stdout, "%d/%d %s\n", i+1, len(arch.Stops), st.Name)
		fmt.Fprintf(os.Stdout, "    %s\n", st.Description)
		printList("Materials", st.Detail.Materials)
		printList("MEP", st.Detail.MEP)
		if st.Detail.Lighting != "" {
			fmt.Fprintf(os.Stdout, "    Lighting: %s\n", st.Detail.Lighting)
		}
		if st.Detail.Structure != "" {
			fmt.Fprintf(os.Stdout, "    Structure: %s\n", st.Detail.Structure)
		}
		printList("Features", st.Detail.SpecialFeatures)
	}
	return nil
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(os.Stdout, "    %s: %s\n", label, strings.Join(items, ", "))
}
