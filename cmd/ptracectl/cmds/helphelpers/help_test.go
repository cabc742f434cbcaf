package helphelpers

import (
	"testing"

	"github.com/spf13/cobra"
)

func newTree() (root, resolve, attach *cobra.Command) {
	root = &cobra.Command{Use: "ptracectl"}
	root.PersistentFlags().Bool("log", false, "")
	root.PersistentFlags().String("init", "", "")
	resolve = &cobra.Command{Use: "resolve", Run: func(*cobra.Command, []string) {}}
	attach = &cobra.Command{Use: "attach", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(resolve, attach)
	return root, resolve, attach
}

func TestPrepareHidesInit(t *testing.T) {
	root, resolve, _ := newTree()
	Prepare(resolve)
	if !root.PersistentFlags().Lookup("init").Hidden {
		t.Fatal("init flag shown for resolve")
	}
	if root.PersistentFlags().Lookup("log").Hidden {
		t.Fatal("log flag hidden for resolve")
	}
}

func TestPrepareAttachShowsAll(t *testing.T) {
	root, _, attach := newTree()
	Prepare(attach)
	if root.PersistentFlags().Lookup("init").Hidden || root.PersistentFlags().Lookup("log").Hidden {
		t.Fatal("flags hidden for attach")
	}
}

func TestPrepareRootHidesAll(t *testing.T) {
	root, _, _ := newTree()
	Prepare(root)
	if !root.PersistentFlags().Lookup("init").Hidden || !root.PersistentFlags().Lookup("log").Hidden {
		t.Fatal("flags shown for the root command")
	}
}
