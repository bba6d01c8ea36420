package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// GenerateCompletion writes a shell completion script for program. The
// script completes flags and offers the registered benchmark names as
// values for -t/--include.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash", "zsh", "fish").
//   - program: The command name the script completes.
//   - benchmarks: The registered benchmark names.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell, program string, benchmarks []string) error {
	program = filepath.Base(program)
	switch shell {
	case "bash":
		return generateBashCompletion(out, program, benchmarks)
	case "zsh":
		return generateZshCompletion(out, program, benchmarks)
	case "fish":
		return generateFishCompletion(out, program, benchmarks)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish)", shell)
	}
}

// shellIdent turns a program name into a valid shell function name.
func shellIdent(program string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, program)
}

// quoteWords single-quotes every name so that regex characters survive the
// shell.
func quoteWords(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + strings.ReplaceAll(n, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

// generateBashCompletion generates a Bash completion script.
func generateBashCompletion(out io.Writer, program string, benchmarks []string) error {
	script := `# Bash completion script for %[1]s
# Add this to your ~/.bashrc or ~/.bash_completion

_%[2]s_completions() {
    local cur prev opts benchmarks
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    opts="--help -h --version --config -c --log-dir --include -t --min-sample-duration --no-log --set-baseline --quiet -q --no-color --log-level --metrics-file --completion"
    benchmarks=(%[3]s)

    case "${prev}" in
        --include|-t)
            COMPREPLY=( $(compgen -W "${benchmarks[*]}" -- "${cur}") )
            return 0
            ;;
        --completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "${cur}") )
            return 0
            ;;
        --log-level)
            COMPREPLY=( $(compgen -W "debug info warn error" -- "${cur}") )
            return 0
            ;;
        --config|-c|--metrics-file)
            COMPREPLY=( $(compgen -f -- "${cur}") )
            return 0
            ;;
        --log-dir)
            COMPREPLY=( $(compgen -d -- "${cur}") )
            return 0
            ;;
        --min-sample-duration)
            COMPREPLY=( $(compgen -W "0.1 0.5 1 2" -- "${cur}") )
            return 0
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _%[2]s_completions %[1]s
`
	_, err := fmt.Fprintf(out, script, program, shellIdent(program), quoteWords(benchmarks))
	return err
}

// generateZshCompletion generates a Zsh completion script.
func generateZshCompletion(out io.Writer, program string, benchmarks []string) error {
	script := `#compdef %[1]s

# Zsh completion script for %[1]s
# Add this to your ~/.zshrc or place in $fpath

_%[2]s() {
    local -a benchmarks
    benchmarks=(%[3]s)

    _arguments -s \
        '(-h --help)'{-h,--help}'[Show help message]' \
        '--version[Show version information]' \
        '(-c --config)'{-c,--config}'[Config file]:file:_files' \
        '--log-dir[Directory to put logs in]:directory:_files -/' \
        '(-t --include)'{-t,--include}'[Run only benchmarks matching a regex]:benchmark:($benchmarks)' \
        '--min-sample-duration[Minimum seconds per sample]:seconds:(0.1 0.5 1 2)' \
        '--no-log[Do not save the results]' \
        '--set-baseline[Mark these results as the baseline]' \
        '(-q --quiet)'{-q,--quiet}'[Print only the results]' \
        '--no-color[Disable colored output]' \
        '--log-level[Diagnostic log level]:level:(debug info warn error)' \
        '--metrics-file[Prometheus text file]:file:_files' \
        '--completion[Generate completion script]:shell:(bash zsh fish)'
}

_%[2]s "$@"
`
	_, err := fmt.Fprintf(out, script, program, shellIdent(program), quoteWords(benchmarks))
	return err
}

// generateFishCompletion generates a Fish completion script.
func generateFishCompletion(out io.Writer, program string, benchmarks []string) error {
	script := `# Fish completion script for %[1]s
# Add this to ~/.config/fish/completions/%[1]s.fish

# Disable file completion by default
complete -c %[1]s -f

complete -c %[1]s -s h -l help -d 'Show help message'
complete -c %[1]s -l version -d 'Show version information'
complete -c %[1]s -s c -l config -d 'Config file' -rF
complete -c %[1]s -l log-dir -d 'Directory to put logs in' -xa '(__fish_complete_directories)'
complete -c %[1]s -s t -l include -d 'Run only benchmarks matching a regex' -xa "%[2]s"
complete -c %[1]s -l min-sample-duration -d 'Minimum seconds per sample' -xa '0.1 0.5 1 2'
complete -c %[1]s -l no-log -d 'Do not save the results'
complete -c %[1]s -l set-baseline -d 'Mark these results as the baseline'
complete -c %[1]s -s q -l quiet -d 'Print only the results'
complete -c %[1]s -l no-color -d 'Disable colored output'
complete -c %[1]s -l log-level -d 'Diagnostic log level' -xa 'debug info warn error'
complete -c %[1]s -l metrics-file -d 'Prometheus text file' -rF
complete -c %[1]s -l completion -d 'Generate completion script' -xa 'bash zsh fish'
`
	_, err := fmt.Fprintf(out, script, program, quoteWords(benchmarks))
	return err
}
