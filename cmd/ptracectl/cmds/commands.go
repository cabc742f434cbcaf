package cmds

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ptracectl/ptracectl/cmd/ptracectl/cmds/helphelpers"
	"github.com/ptracectl/ptracectl/pkg/config"
	"github.com/ptracectl/ptracectl/pkg/logflags"
	"github.com/ptracectl/ptracectl/pkg/proc/native"
	"github.com/ptracectl/ptracectl/pkg/proc/procfs"
	"github.com/ptracectl/ptracectl/pkg/terminal"
	"github.com/ptracectl/ptracectl/pkg/version"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// initFile is the path to initialization file.
	initFile string
	// procPath overrides the proc filesystem mount point.
	procPath string
	// attachName selects the process to attach to by program name.
	attachName string

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	// procFs is the filesystem process names are resolved against.
	procFs afero.Fs = afero.NewOsFs()

	conf *config.Config
)

const ptracectlCommandLongDesc = `ptracectl attaches to a running Linux process with ptrace and lets you
drive it from an interactive console.

Once attached you can single step the process, resume it until the next
signal or system call, read and write its registers and memory, push values
on its stack and redirect it to call arbitrary code.

A process can be selected by pid or, with --name, by the program name shown
in its command line.`

// New returns an initialized command tree.
func New() *cobra.Command {
	// Main ptracectl root command.
	rootCommand = &cobra.Command{
		Use:   "ptracectl",
		Short: "ptracectl is a ptrace based process tracer.",
		Long:  ptracectlCommandLongDesc,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if conf == nil {
				conf = config.LoadConfig()
			}
		},
	}

	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable tracer logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'ptracectl help log')`)
	rootCommand.PersistentFlags().StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'ptracectl help log').")
	rootCommand.PersistentFlags().StringVar(&initFile, "init", "", "Init file, executed by the terminal after attaching.")
	rootCommand.PersistentFlags().StringVar(&procPath, "proc", "", "Mount point of the proc filesystem (defaults to the proc-path config key).")

	defaultHelp := rootCommand.HelpFunc()
	rootCommand.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helphelpers.Prepare(cmd)
		defaultHelp(cmd, args)
	})

	// 'attach' subcommand.
	attachCommand := &cobra.Command{
		Use:   "attach [pid]",
		Short: "Attach to running process and begin tracing.",
		Long: `Attach to an already running process and begin tracing it.

The process is stopped once attached. Use --name to pick the first process
whose program name matches instead of passing a pid.

When the console exits the process is detached and left running.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if attachName != "" {
				if len(args) != 0 {
					return errors.New("a pid can not be used together with --name")
				}
				return nil
			}
			if len(args) != 1 {
				return errors.New("you must provide a PID or --name")
			}
			return nil
		},
		Run: attachCmd,
	}
	attachCommand.Flags().StringVarP(&attachName, "name", "n", "", "Attach to the first process running the named program.")
	rootCommand.AddCommand(attachCommand)

	// 'resolve' subcommand.
	resolveCommand := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Prints the pid of the first process running the named program.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolve(cmd.OutOrStdout(), newResolver(), args[0])
		},
	}
	rootCommand.AddCommand(resolveCommand)

	// 'ps' subcommand.
	psCommand := &cobra.Command{
		Use:   "ps",
		Short: "Lists processes with their tracer.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ps(cmd.OutOrStdout(), newResolver())
		},
	}
	rootCommand.AddCommand(psCommand)

	// 'version' subcommand.
	var buildInfo bool
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ptracectl\n%s\n", version.PtracectlVersion)
			if buildInfo {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", version.BuildInfo())
			}
		},
	}
	versionCommand.Flags().BoolVarP(&buildInfo, "verbose", "v", false, "print build info")
	rootCommand.AddCommand(versionCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	native		Log ptrace requests and stops
	procfs		Log process name resolution
	inject		Log stack pushes and injected calls
	terminal	Log console commands

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.

`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

func newResolver() *procfs.Resolver {
	root := procPath
	if root == "" {
		root = conf.GetProcPath()
	}
	return procfs.New(procFs, root)
}

func attachCmd(cmd *cobra.Command, args []string) {
	pid := 0
	if attachName == "" {
		var err error
		pid, err = strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid pid: %s\n", args[0])
			os.Exit(1)
		}
	}
	os.Exit(execute(pid, attachName, conf))
}

func execute(attachPid int, name string, conf *config.Config) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	resolver := newResolver()

	var (
		p   *native.Process
		err error
	)
	if name != "" {
		p, err = native.AttachByName(resolver, name)
	} else {
		p, err = native.Attach(attachPid)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	term := terminal.New(p, resolver, conf)
	term.InitFile = initFile
	status, err := term.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return status
}

func resolve(out io.Writer, r *procfs.Resolver, name string) error {
	pid, err := r.Resolve(name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, pid)
	return err
}

func ps(out io.Writer, r *procfs.Resolver) error {
	infos, err := r.List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 8, 1, ' ', 0)
	fmt.Fprintln(w, "PID\tPPID\tSTATE\tTRACER\tPROGRAM")
	for _, pi := range infos {
		tracer := "-"
		if pi.TracerPid != 0 {
			tracer = strconv.Itoa(pi.TracerPid)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", pi.Pid, pi.PPid, pi.State, tracer, pi.Program())
	}
	return w.Flush()
}
