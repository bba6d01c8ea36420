package history

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"golang.org/x/sys/cpu"
)

// Environment describes the host and build a result was measured on.
type Environment struct {
	GoVersion     string `json:"goVersion"`
	RunnerVersion string `json:"runnerVersion"`
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	// CPU summarises the core count and the SIMD features that most often
	// explain a throughput difference between two machines.
	CPU           string `json:"cpu"`
	ModuleName    string `json:"moduleName,omitempty"`
	ModuleVersion string `json:"moduleVersion,omitempty"`
}

// CurrentEnvironment describes the running process. An empty moduleName
// falls back to the main module of the binary's build info.
//
// Parameters:
//   - runnerVersion: The version of the benchmark runner.
//   - moduleName: The name of the code under measurement, if configured.
//   - moduleVersion: Its version, if configured.
//
// Returns:
//   - Environment: The descriptor stored with each history entry.
func CurrentEnvironment(runnerVersion, moduleName, moduleVersion string) Environment {
	if moduleName == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Path != "" {
			moduleName = info.Main.Path
			if moduleVersion == "" && info.Main.Version != "(devel)" {
				moduleVersion = info.Main.Version
			}
		}
	}
	return Environment{
		GoVersion:     runtime.Version(),
		RunnerVersion: runnerVersion,
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		CPU:           cpuDescription(),
		ModuleName:    moduleName,
		ModuleVersion: moduleVersion,
	}
}

// cpuDescription renders e.g. "8 cores, avx2 bmi2 adx".
func cpuDescription() string {
	desc := fmt.Sprintf("%d cores", runtime.NumCPU())
	if features := cpuFeatures(); len(features) > 0 {
		desc += ", " + strings.Join(features, " ")
	}
	return desc
}

func cpuFeatures() []string {
	var features []string
	add := func(name string, ok bool) {
		if ok {
			features = append(features, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add("avx2", cpu.X86.HasAVX2)
		add("avx512", cpu.X86.HasAVX512F && cpu.X86.HasAVX512DQ)
		add("bmi2", cpu.X86.HasBMI2)
		add("adx", cpu.X86.HasADX)
	case "arm64":
		add("asimd", cpu.ARM64.HasASIMD)
		add("sve", cpu.ARM64.HasSVE)
		add("atomics", cpu.ARM64.HasATOMICS)
	}
	return features
}
