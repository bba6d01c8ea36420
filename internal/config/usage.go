package config

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/agbru/highscore/internal/benchmark"
	"github.com/agbru/highscore/internal/ui"
)

// setCustomUsage configures the flag set with a colored usage function.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		bold, warning, reset := ui.ColorBold(), ui.ColorWarning(), ui.ColorReset()
		// Respect NO_COLOR even before app initialization
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			bold, warning, reset = "", "", ""
		}

		out := fs.Output()
		defaults := benchmark.DefaultOptions()

		fmt.Fprintf(out, "\n%sHighscore%s\n", bold, reset)
		fmt.Fprintf(out, "Adaptive micro-benchmark runner with a persistent result history.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags]\n\n%sFlags:%s\n", warning, reset, fs.Name(), warning, reset)
		fmt.Fprint(out, fs.FlagUsages())
		fmt.Fprintf(out, "\n%sDefaults:%s\n  min sample duration %s, samples %d..%s\n\n",
			warning, reset,
			durationFlag(defaults.MinSampleDuration), defaults.MinSampleCount, defaults.MaxSampleCount)
	}
}
