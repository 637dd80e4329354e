package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/slotvault/cmd"
	"github.com/illarion/slotvault/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "get":
		runGet(ctx, args)
	case "set":
		runSet(ctx, args)
	case "rm":
		runRm(ctx, args)
	case "ls":
		runLs(ctx, args)
	case "export":
		runExport(ctx, args)
	case "import":
		runImport(ctx, args)
	case "clear":
		runClear(ctx, args)
	case "check":
		runCheck(ctx, args)
	case "reseal":
		runReseal(ctx, args)
	case "diff":
		runDiff(ctx, args)
	case "passwd":
		runPasswd(ctx, args)
	case "status":
		runStatus(ctx, args)
	case "keyring":
		runKeyring(ctx, args)
	case "backup":
		runBackup(ctx, args)
	case "backups":
		runBackups(ctx, args)
	case "restore":
		runRestore(ctx, args)
	case "browse":
		runBrowse(ctx, args)
	case "completion":
		runCompletion(ctx, args)
	case "help", "-h", "--help":
		if len(args) == 0 {
			printUsage()
			return
		}
		printCommandHelp(args[0])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// newFlagSet registers the flags every vault command accepts.
func newFlagSet(name string) (*flag.FlagSet, *cmd.Options) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	opts := &cmd.Options{}
	fs.StringVar(&opts.LockDir, "lock-dir", "", "Encrypted vault directory (env "+config.EnvLockDir+")")
	fs.StringVar(&opts.UnlockDir, "unlock-dir", "", "Plaintext staging directory (env "+config.EnvUnlockDir+")")
	fs.StringVar(&opts.Password, "password", "", "Vault password (env "+config.EnvPassword+")")
	return fs, opts
}

func parse(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// requireArgs exits with the usage line unless fs has between lo and hi
// positional arguments; hi < 0 means unbounded.
func requireArgs(fs *flag.FlagSet, lo, hi int, usage string) []string {
	n := fs.NArg()
	if n < lo || (hi >= 0 && n > hi) {
		fmt.Fprintf(os.Stderr, "Usage: slotvault %s\n", usage)
		os.Exit(1)
	}
	return fs.Args()
}

// optionalArg returns the single optional positional argument, or "".
func optionalArg(fs *flag.FlagSet, usage string) string {
	args := requireArgs(fs, 0, 1, usage)
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func runGet(ctx context.Context, args []string) {
	fs, opts := newFlagSet("get")
	raw := fs.Bool("raw", false, "Write the payload to stdout unchanged")
	parse(fs, args)
	path := requireArgs(fs, 1, 1, "get [--raw] <path>")[0]

	cmd.Get(ctx, *opts, path, *raw)
}

func runSet(ctx context.Context, args []string) {
	fs, opts := newFlagSet("set")
	parse(fs, args)
	rest := requireArgs(fs, 1, 2, "set <path> [value]")

	cmd.Set(ctx, *opts, rest[0], rest[1:])
}

func runRm(ctx context.Context, args []string) {
	fs, opts := newFlagSet("rm")
	parse(fs, args)

	cmd.Remove(ctx, *opts, fs.Args())
}

func runLs(ctx context.Context, args []string) {
	fs, opts := newFlagSet("ls")
	parse(fs, args)

	cmd.List(ctx, *opts, optionalArg(fs, "ls [pattern]"))
}

func runExport(ctx context.Context, args []string) {
	fs, opts := newFlagSet("export")
	parse(fs, args)
	pattern := requireArgs(fs, 1, 1, "export <pattern>")[0]

	cmd.Export(ctx, *opts, pattern)
}

func runImport(ctx context.Context, args []string) {
	fs, opts := newFlagSet("import")
	parse(fs, args)
	pattern := requireArgs(fs, 1, 1, "import <pattern>")[0]

	cmd.Import(ctx, *opts, pattern)
}

func runClear(ctx context.Context, args []string) {
	fs, opts := newFlagSet("clear")
	parse(fs, args)
	pattern := optionalArg(fs, "clear [pattern]")
	if pattern == "" {
		pattern = "**"
	}

	cmd.Clear(ctx, *opts, pattern)
}

func runCheck(ctx context.Context, args []string) {
	fs, opts := newFlagSet("check")
	parse(fs, args)
	requireArgs(fs, 0, 0, "check")

	cmd.Check(ctx, *opts)
}

func runReseal(ctx context.Context, args []string) {
	fs, opts := newFlagSet("reseal")
	parse(fs, args)
	requireArgs(fs, 0, 0, "reseal")

	cmd.Reseal(ctx, *opts)
}

func runDiff(ctx context.Context, args []string) {
	fs, opts := newFlagSet("diff")
	parse(fs, args)

	cmd.Diff(ctx, *opts, optionalArg(fs, "diff [pattern]"))
}

func runPasswd(ctx context.Context, args []string) {
	fs, opts := newFlagSet("passwd")
	parse(fs, args)
	requireArgs(fs, 0, 0, "passwd")

	cmd.Passwd(ctx, *opts)
}

func runStatus(ctx context.Context, args []string) {
	fs, opts := newFlagSet("status")
	parse(fs, args)
	requireArgs(fs, 0, 0, "status")

	cmd.Status(ctx, *opts)
}

func runKeyring(_ context.Context, args []string) {
	fs, opts := newFlagSet("keyring")
	parse(fs, args)
	sub := requireArgs(fs, 1, 1, "keyring <save|delete|status>")[0]

	cmd.Keyring(*opts, sub)
}

func runBackup(ctx context.Context, args []string) {
	fs, opts := newFlagSet("backup")
	note := fs.String("note", "", "Note stored with the snapshot")
	parse(fs, args)
	archive := requireArgs(fs, 1, 1, "backup [--note text] <archive>")[0]

	cmd.Backup(ctx, *opts, archive, *note)
}

func runBackups(_ context.Context, args []string) {
	fs, opts := newFlagSet("backups")
	del := fs.String("delete", "", "Delete the snapshot with this id (or unique prefix)")
	parse(fs, args)
	archive := requireArgs(fs, 1, 1, "backups [--delete id] <archive>")[0]

	cmd.Backups(*opts, archive, *del)
}

func runRestore(ctx context.Context, args []string) {
	fs, opts := newFlagSet("restore")
	parse(fs, args)
	rest := requireArgs(fs, 2, 2, "restore <archive> <snapshot-id>")

	cmd.Restore(ctx, *opts, rest[0], rest[1])
}

func runBrowse(ctx context.Context, args []string) {
	fs, opts := newFlagSet("browse")
	parse(fs, args)
	requireArgs(fs, 0, 0, "browse")

	cmd.Browse(ctx, *opts)
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: slotvault completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("slotvault - Password-protected local secret store")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  slotvault <command> [flags] [arguments]")
	fmt.Println()
	fmt.Println("Secrets:")
	fmt.Println("  get         Print a secret")
	fmt.Println("  set         Store a secret (value from argument or stdin)")
	fmt.Println("  rm          Remove secrets")
	fmt.Println("  ls          List secret paths matching a pattern")
	fmt.Println("  browse      Browse secrets interactively")
	fmt.Println()
	fmt.Println("Files:")
	fmt.Println("  export      Write matching secrets to the unlock directory")
	fmt.Println("  import      Store matching files from the unlock directory")
	fmt.Println("  clear       Delete plaintext files from the unlock directory")
	fmt.Println("  diff        Compare staged files with the vault")
	fmt.Println()
	fmt.Println("Maintenance:")
	fmt.Println("  status      Show vault status")
	fmt.Println("  check       Verify slot files against the checksum ledger")
	fmt.Println("  reseal      Rebuild the checksum ledger")
	fmt.Println("  passwd      Change vault password")
	fmt.Println("  keyring     Manage password in OS keyring")
	fmt.Println("  backup      Snapshot the vault into an archive")
	fmt.Println("  backups     List or delete snapshots")
	fmt.Println("  restore     Restore a snapshot")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Patterns:")
	fmt.Println("  dir/name    exactly that path")
	fmt.Println("  dir/*       paths directly under dir/")
	fmt.Println("  dir/**      everything under dir/")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  slotvault set db/password hunter2")
	fmt.Println("  cat cert.pem | slotvault set tls/cert")
	fmt.Println("  slotvault export 'app/**'")
	fmt.Println("  slotvault import 'app/**' && slotvault clear")
	fmt.Println()
	fmt.Println("Use 'slotvault help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "get":
		fmt.Println("slotvault get [--raw] <path>")
		fmt.Println()
		fmt.Println("Prints the secret stored at path.")
		fmt.Println("Secrets that are not valid UTF-8 print as <byte>; use --raw to")
		fmt.Println("write the payload unchanged.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  slotvault get db/password")
		fmt.Println("  slotvault get --raw tls/key > key.der")
	case "set":
		fmt.Println("slotvault set <path> [value]")
		fmt.Println()
		fmt.Println("Stores a secret at path, replacing any previous value.")
		fmt.Println("Without a value argument, the secret is read from stdin.")
		fmt.Println("The first set on a new vault asks for the password twice.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  slotvault set db/password hunter2")
		fmt.Println("  slotvault set tls/cert < cert.pem")
	case "rm":
		fmt.Println("slotvault rm <path> [path...]")
		fmt.Println()
		fmt.Println("Removes secrets and frees their slots.")
	case "ls":
		fmt.Println("slotvault ls [pattern]")
		fmt.Println()
		fmt.Println("Lists secret paths matching pattern, all paths by default.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  slotvault ls")
		fmt.Println("  slotvault ls 'app/*'")
	case "export":
		fmt.Println("slotvault export <pattern>")
		fmt.Println()
		fmt.Println("Decrypts matching secrets into the unlock directory, one file per")
		fmt.Println("secret, overwriting existing files. Stops at the first failure.")
	case "import":
		fmt.Println("slotvault import <pattern>")
		fmt.Println()
		fmt.Println("Stores every file in the unlock directory matching pattern.")
		fmt.Println("Stops at the first failure; files stored so far stay stored.")
	case "clear":
		fmt.Println("slotvault clear [pattern]")
		fmt.Println()
		fmt.Println("Deletes plaintext files from the unlock directory (all by default)")
		fmt.Println("and removes directories left empty. Does not require a password.")
	case "diff":
		fmt.Println("slotvault diff [pattern]")
		fmt.Println()
		fmt.Println("Compares staged files in the unlock directory with the vault.")
	case "status":
		fmt.Println("slotvault status")
		fmt.Println()
		fmt.Println("Shows secret count, size, encryption, ledger health, staged")
		fmt.Println("plaintext and git hygiene. Does not require a password.")
	case "check":
		fmt.Println("slotvault check")
		fmt.Println()
		fmt.Println("Verifies every file in the lock directory against the checksum")
		fmt.Println("ledger. Does not require a password.")
	case "reseal":
		fmt.Println("slotvault reseal")
		fmt.Println()
		fmt.Println("Decrypts every slot to prove it intact, then rebuilds the checksum")
		fmt.Println("ledger. Use after an interrupted operation.")
	case "passwd":
		fmt.Println("slotvault passwd")
		fmt.Println()
		fmt.Println("Re-encrypts the vault under a new password.")
		fmt.Println("A keyring entry for the vault is updated as well.")
	case "keyring":
		fmt.Println("slotvault keyring <save|delete|status>")
		fmt.Println()
		fmt.Println("Stores the vault password in the OS keyring so commands stop")
		fmt.Println("prompting for it.")
	case "backup":
		fmt.Println("slotvault backup [--note text] <archive>")
		fmt.Println()
		fmt.Println("Copies the encrypted lock directory into a snapshot archive.")
		fmt.Println("Does not require a password.")
	case "backups":
		fmt.Println("slotvault backups [--delete id] <archive>")
		fmt.Println()
		fmt.Println("Lists the snapshots in an archive, or deletes one.")
	case "restore":
		fmt.Println("slotvault restore <archive> <snapshot-id>")
		fmt.Println()
		fmt.Println("Replaces the lock directory with a snapshot and verifies it.")
		fmt.Println("A unique prefix of the snapshot id is enough.")
	case "browse":
		fmt.Println("slotvault browse")
		fmt.Println()
		fmt.Println("Opens an interactive browser over the secret tree.")
	case "completion":
		fmt.Println("slotvault completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(slotvault completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(slotvault completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  slotvault completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
