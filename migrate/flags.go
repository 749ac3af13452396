package migrate

import (
	"strings"

	cli "github.com/urfave/cli/v3"

	"thememig/common"
)

// Flags returns migrate command flags. Empty strategy and preprocess mean
// configured values.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "strategy", Aliases: []string{"s"},
			Usage: "classification `STRATEGY` (" + strings.Join(common.StrategyNames(), ", ") + "), overrides configuration"},
		&cli.StringFlag{Name: "preprocess", Aliases: []string{"p"},
			Usage: "source preprocessing `MODE` (" + strings.Join(common.PreprocessModeNames(), ", ") + "), overrides configuration"},
		&cli.StringFlag{Name: "theme", Aliases: []string{"t"}, Usage: "use `NAME` as theme identifier for all stylesheets"},
		&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: 1, Usage: "number of themes to classify in parallel"},
		&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "when producing output do not keep input directory structure"},
		&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exits, overwrite files"},
		&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "classify and report, but do not write anything"},
		&cli.StringFlag{Name: "force-zip-cp",
			Usage: "Force `ENCODING` for ALL non UTF-8 file names in processed archives (see IANA.org for character set names)"},
	}
}
