package cli

import (
	"github.com/spf13/cobra"

	"github.com/promptloom/promptloom/internal/session"
)

// sessionFlags carries the CLI surface shared by generate and plan.
// Pointer-typed overrides distinguish "not provided" from zero values.
type sessionFlags struct {
	Out          string
	Name         string
	Mode         string
	SeedMode     string
	Seed         int64
	MaxImages    int
	Workers      int
	FilenameKeys []string

	seedSet      bool
	maxImagesSet bool
	workersSet   bool
}

// register wires the shared session flags onto a command.
func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Out, "out", "", "output root directory")
	cmd.Flags().StringVar(&f.Name, "name", "", "session name (default derived from template and run ID)")
	cmd.Flags().StringVar(&f.Mode, "mode", "", "generation mode (combinatorial|random)")
	cmd.Flags().StringVar(&f.SeedMode, "seed-mode", "", "seed mode (fixed|progressive|random)")
	cmd.Flags().Int64Var(&f.Seed, "seed", 0, "base seed for fixed and progressive seed modes")
	cmd.Flags().IntVar(&f.MaxImages, "max-images", 0, "cap on generated images (required for random mode)")
	cmd.Flags().IntVar(&f.Workers, "workers", 0, "concurrent submission workers")
	cmd.Flags().StringSliceVar(&f.FilenameKeys, "filename-keys", nil, "placeholders embedded in generated filenames")
}

// overrides converts the flag values into session overrides, honoring
// which flags were actually set.
func (f *sessionFlags) overrides(cmd *cobra.Command) session.Overrides {
	ov := session.Overrides{
		OutputRoot:   f.Out,
		SessionName:  f.Name,
		Mode:         f.Mode,
		SeedMode:     f.SeedMode,
		FilenameKeys: f.FilenameKeys,
	}
	if cmd.Flags().Changed("seed") {
		seed := f.Seed
		ov.Seed = &seed
	}
	if cmd.Flags().Changed("max-images") {
		n := f.MaxImages
		ov.MaxImages = &n
	}
	if cmd.Flags().Changed("workers") {
		n := f.Workers
		ov.Workers = &n
	}
	return ov
}
