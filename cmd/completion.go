package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_slotvault() {
    local cur prev words cword
    _init_completion || return

    local commands="get set rm ls export import clear check reseal diff passwd status keyring backup backups restore browse help completion"
    local common="--lock-dir --unlock-dir --password"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    if [[ "$cur" == -* ]]; then
        case "$cmd" in
            get) COMPREPLY=($(compgen -W "$common --raw" -- "$cur")) ;;
            backup) COMPREPLY=($(compgen -W "$common --note" -- "$cur")) ;;
            backups) COMPREPLY=($(compgen -W "$common --delete" -- "$cur")) ;;
            *) COMPREPLY=($(compgen -W "$common" -- "$cur")) ;;
        esac
        return
    fi

    case "$cmd" in
        get|rm|ls|export|diff)
            # Complete with secret paths from the vault
            local paths
            paths=$(slotvault ls 2>/dev/null)
            COMPREPLY=($(compgen -W "$paths" -- "$cur"))
            ;;
        backup|backups|restore)
            _filedir
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _slotvault slotvault
`

const zshCompletion = `#compdef slotvault

_slotvault() {
    local -a commands
    commands=(
        'get:Print a secret'
        'set:Store a secret'
        'rm:Remove secrets'
        'ls:List secret paths'
        'export:Write secrets to the unlock directory'
        'import:Store staged files from the unlock directory'
        'clear:Delete staged plaintext files'
        'check:Verify the checksum ledger'
        'reseal:Rebuild the checksum ledger'
        'diff:Compare staged files with the vault'
        'passwd:Change vault password'
        'status:Show vault status'
        'keyring:Manage password in OS keyring'
        'backup:Snapshot the vault into an archive'
        'backups:List or delete snapshots'
        'restore:Restore a snapshot'
        'browse:Browse secrets interactively'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    local -a common
    common=(
        '--lock-dir[Encrypted vault directory]:directory:_files -/'
        '--unlock-dir[Plaintext staging directory]:directory:_files -/'
        '--password[Vault password]:password:'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'slotvault commands' commands
            ;;
        args)
            case "${words[2]}" in
                get)
                    _arguments $common '--raw[Write the payload unchanged]' '*:secret:_slotvault_paths'
                    ;;
                rm|ls|export|diff)
                    _arguments $common '*:secret:_slotvault_paths'
                    ;;
                backup|backups|restore)
                    _arguments $common '*:archive:_files'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'slotvault commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
                *)
                    _arguments $common
                    ;;
            esac
            ;;
    esac
}

_slotvault_paths() {
    local -a paths
    paths=(${(f)"$(slotvault ls 2>/dev/null)"})
    _describe -t paths 'secret paths' paths
}

_slotvault "$@"
`

const fishCompletion = `# slotvault fish completions

set -l commands get set rm ls export import clear check reseal diff passwd status keyring backup backups restore browse help completion

complete -c slotvault -f

# Commands
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a get -d 'Print a secret'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a set -d 'Store a secret'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove secrets'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List secret paths'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a export -d 'Write secrets to the unlock directory'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a import -d 'Store staged files'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a clear -d 'Delete staged plaintext'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a check -d 'Verify the ledger'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a reseal -d 'Rebuild the ledger'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare staged with vault'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change vault password'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show vault status'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a backup -d 'Snapshot the vault'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a backups -d 'List snapshots'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a restore -d 'Restore a snapshot'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a browse -d 'Browse secrets'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c slotvault -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# Shared flags
complete -c slotvault -n "__fish_seen_subcommand_from $commands" -l lock-dir -r -d 'Encrypted vault directory'
complete -c slotvault -n "__fish_seen_subcommand_from $commands" -l unlock-dir -r -d 'Plaintext staging directory'
complete -c slotvault -n "__fish_seen_subcommand_from $commands" -l password -r -d 'Vault password'
complete -c slotvault -n "__fish_seen_subcommand_from get" -l raw -d 'Write the payload unchanged'
complete -c slotvault -n "__fish_seen_subcommand_from backup" -l note -r -d 'Snapshot note'
complete -c slotvault -n "__fish_seen_subcommand_from backups" -l delete -r -d 'Delete a snapshot'

# Secret paths
complete -c slotvault -n "__fish_seen_subcommand_from get rm ls export diff" -a "(slotvault ls 2>/dev/null)"

# Archives
complete -c slotvault -n "__fish_seen_subcommand_from backup backups restore" -F

# keyring subcommands
complete -c slotvault -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c slotvault -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c slotvault -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
