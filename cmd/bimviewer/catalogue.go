package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bimflow/bimviewer/scene"
)

func catalogueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalogue",
		Aliases: []string{"catalog"},
		Short:   "Inspect the building archetypes",
	}
	cmd.AddCommand(catalogueListCmd())
	cmd.AddCommand(catalogueShowCmd())
	return cmd
}

func catalogueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archetypes and their stop counts",
		Args:  cobra.NoArgs,
		RunE:  runCatalogueList,
	}
}

func runCatalogueList(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	for _, arch := range a.catalogue.Archetypes() {
		fmt.Fprintf(os.Stdout, "%-10s %2d stops  %s\n", arch.ID, len(arch.Stops), arch.Title)
	}
	return nil
}

func catalogueShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <archetype>",
		Short: "Display an archetype, its scene and its tour stops",
		Args:  cobra.ExactArgs(1),
		RunE:  runCatalogueShow,
	}
}

func runCatalogueShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	id := args[0]
	arch, ok := a.catalogue.Archetype(id)
	if !ok && !a.builder.Has(id) {
		return fmt.Errorf("unknown archetype %q", id)
	}

	title := arch.Title
	if title == "" {
		title = id
	}
	fmt.Fprintf(os.Stdout, "%s (%s)\n", title, id)
	if arch.Summary != "" {
		fmt.Fprintf(os.Stdout, "%s\n", arch.Summary)
	}

	for _, mode := range []scene.Mode{scene.Exterior, scene.Interior} {
		g := a.builder.Build(id, mode)
		if g == nil {
			continue
		}
		groups := make([]string, 0, len(g.Groups))
		for _, grp := range g.Groups {
			groups = append(groups, fmt.Sprintf("%s=%d", grp.Name, len(grp.Meshes)))
		}
		fmt.Fprintf(os.Stdout, "%s: %d meshes, %d lights [%s]\n", mode, g.MeshCount(), len(g.Lights), strings.Join(groups, " "))
	}

	if len(arch.Stops) == 0 {
		fmt.Fprintln(os.Stdout, "No tour stops.")
		return nil
	}
	fmt.Fprintln(os.Stdout, "Stops:")
	for i, st := range arch.Stops {
		fmt.Fprintf(os.Stdout, "  %d. %s\n", i+1, st.Name)
	}
	return nil
}
