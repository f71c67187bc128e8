/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/outofforest/parallel"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/agent"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/common/zaplog"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/config"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/suite"
	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/suite/cases"
)

const (
	// suite config flag.
	suiteConfigFlagName      = "suite-config"
	suiteConfigFlagShorthand = "c"
	suiteConfigEnvKey        = "APTS_SUITE_CONFIG"
	suiteConfigFlagUsage     = "Load the suite configuration from this TOML or YAML file. Defaults to " +
		defaultSuiteConfig + "." +
		" Alternatively, this can be set with the following environment variable: " + suiteConfigEnvKey
	defaultSuiteConfig = "config.toml"

	// select flag.
	selectFlagName      = "select"
	selectFlagShorthand = "S"
	selectEnvKey        = "APTS_SELECT"
	selectFlagUsage     = "Run the tests whose flat name matches this regular expression." +
		" Overrides the tests of the suite configuration." +
		" Alternatively, this can be set with the following environment variable: " + selectEnvKey

	// output flag.
	outputFlagName      = "output"
	outputFlagShorthand = "O"
	outputEnvKey        = "APTS_OUTPUT"
	outputFlagUsage     = "Save the interop report to this file. Overrides save_path of the suite configuration." +
		" Alternatively, this can be set with the following environment variable: " + outputEnvKey

	// show dev notes flag.
	showDevNotesFlagName  = "show-dev-notes"
	showDevNotesEnvKey    = "APTS_SHOW_DEV_NOTES"
	showDevNotesFlagUsage = "Print the developer notes collected while validating messages." +
		" Possible values [true] [false]. Defaults to false if not set." +
		" Alternatively, this can be set with the following environment variable: " + showDevNotesEnvKey

	// log level flag.
	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "APTS_LOG_LEVEL"
	logLevelFlagUsage = "Log level. Overrides log_level of the suite configuration." +
		" Possible values [DEBUG] [INFO] [WARNING] [ERROR] [CRITICAL]." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	// log format flag.
	logFormatFlagName  = "log-format"
	logFormatEnvKey    = "APTS_LOG_FORMAT"
	logFormatFlagUsage = "Log format. Possible values [console] [json]. Defaults to console if not set." +
		" Alternatively, this can be set with the following environment variable: " + logFormatEnvKey
	logFormatConsole = "console"
	logFormatJSON    = "json"

	// list flag.
	listFlagName      = "list"
	listFlagShorthand = "L"
	listEnvKey        = "APTS_LIST"
	listFlagUsage     = "Print the available tests as JSON and exit." +
		" Possible values [true] [false]. Defaults to false if not set." +
		" Alternatively, this can be set with the following environment variable: " + listEnvKey
)

var logger = log.New("aries-protocol-test/startcmd")

var errSuiteFailed = errors.New("one or more tests failed")

// SuiteParameters holds the run command inputs.
type SuiteParameters struct {
	configPath   string
	selectExpr   string
	output       string
	showDevNotes bool
	logLevel     string
	logFormat    string
	list         bool

	in     io.Reader
	out    io.Writer
	logOut io.Writer
}

// Cmd returns the Cobra run command. Operator prompts read from in, the report and prompts go to
// out and logs go to logOut.
func Cmd(in io.Reader, out, logOut io.Writer) (*cobra.Command, error) {
	if in == nil || out == nil || logOut == nil {
		return nil, errors.New("run command needs an input and two outputs")
	}

	runCmd := createRunCMD(in, out, logOut)

	createFlags(runCmd)

	return runCmd, nil
}

// ListCmd returns the Cobra list command.
func ListCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available tests",
		Long:  `Print the available tests of the suite as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printAvailable(out)
		},
	}
}

func createRunCMD(in io.Reader, out, logOut io.Writer) *cobra.Command { //nolint: funlen
	return &cobra.Command{
		Use:   "run",
		Short: "Run the test suite",
		Long:  `Run the connections protocol test suite against the agent under test`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := getUserSetVar(cmd, suiteConfigFlagName, suiteConfigEnvKey, true)
			if err != nil {
				return err
			}

			if configPath == "" {
				configPath = defaultSuiteConfig
			}

			selectExpr, err := getUserSetVar(cmd, selectFlagName, selectEnvKey, true)
			if err != nil {
				return err
			}

			output, err := getUserSetVar(cmd, outputFlagName, outputEnvKey, true)
			if err != nil {
				return err
			}

			showDevNotes, err := getUserSetBool(cmd, showDevNotesFlagName, showDevNotesEnvKey)
			if err != nil {
				return err
			}

			logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
			if err != nil {
				return err
			}

			logFormat, err := getUserSetVar(cmd, logFormatFlagName, logFormatEnvKey, true)
			if err != nil {
				return err
			}

			list, err := getUserSetBool(cmd, listFlagName, listEnvKey)
			if err != nil {
				return err
			}

			parameters := &SuiteParameters{
				configPath:   configPath,
				selectExpr:   selectExpr,
				output:       output,
				showDevNotes: showDevNotes,
				logLevel:     logLevel,
				logFormat:    logFormat,
				list:         list,
				in:           in,
				out:          out,
				logOut:       logOut,
			}

			return runSuite(cmd.Context(), parameters)
		},
	}
}

func createFlags(runCmd *cobra.Command) {
	// suite config flag
	runCmd.Flags().StringP(suiteConfigFlagName, suiteConfigFlagShorthand, "", suiteConfigFlagUsage)

	// select flag
	runCmd.Flags().StringP(selectFlagName, selectFlagShorthand, "", selectFlagUsage)

	// output flag
	runCmd.Flags().StringP(outputFlagName, outputFlagShorthand, "", outputFlagUsage)

	// show dev notes flag
	runCmd.Flags().StringP(showDevNotesFlagName, "", "", showDevNotesFlagUsage)

	// log level
	runCmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)

	// log format
	runCmd.Flags().StringP(logFormatFlagName, "", "", logFormatFlagUsage)

	// list flag
	runCmd.Flags().StringP(listFlagName, listFlagShorthand, "", listFlagUsage)
}

func runSuite(ctx context.Context, parameters *SuiteParameters) error { //nolint: funlen
	if parameters.list {
		return printAvailable(parameters.out)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	provider, err := newLoggerProvider(parameters.logFormat, parameters.logOut)
	if err != nil {
		return err
	}

	log.Initialize(provider)

	defer provider.Sync() // nolint: errcheck

	cfg, err := config.Load(parameters.configPath)
	if err != nil {
		return err
	}

	if parameters.logLevel != "" {
		cfg.LogLevel = parameters.logLevel
	}

	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid suite configuration: %w", err)
	}

	if err = setLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	selected, err := suite.Select(cases.All(), parameters.selectExpr, cfg.Tests, cfg.Features)
	if err != nil {
		return err
	}

	a, err := agent.New(agent.WithEndpoint(cfg.Endpoint))
	if err != nil {
		return fmt.Errorf("failed to create suite agent: %w", err)
	}

	ls, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}

	logger.Infof("suite agent listening on %s, reachable at %s", ls.Addr(), cfg.Endpoint)

	report := suite.NewReport(cfg.Subject.Name, cfg.Subject.Version, time.Now())

	err = parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("agent", parallel.Fail, func(ctx context.Context) error {
			return a.Serve(ctx, ls)
		})
		spawn("suite", parallel.Exit, func(ctx context.Context) error {
			env, err := suite.NewEnv(ctx, cfg, a, suite.NewOperator(parameters.in, parameters.out))
			if err != nil {
				return err
			}

			logger.Infof("suite verkey %s, subject verkey %s", env.MyVerKey, env.SubjectVerKey)

			suite.Run(ctx, env, selected, report)

			return nil
		})

		return nil
	})
	if err != nil {
		return err
	}

	return writeReport(parameters, cfg, report)
}

func writeReport(parameters *SuiteParameters, cfg *config.Config, report *suite.Report) error {
	data, err := report.JSON()
	if err != nil {
		return err
	}

	if _, err = fmt.Fprintf(parameters.out, "%s\n", data); err != nil {
		return err
	}

	if parameters.showDevNotes {
		notes, err := report.NotesJSON()
		if err != nil {
			return err
		}

		if _, err = fmt.Fprintf(parameters.out, "Developer notes:\n%s\n", notes); err != nil {
			return err
		}
	}

	path := parameters.output
	if path == "" {
		path = cfg.SavePath
	}

	if path != "" {
		if err = report.Save(path); err != nil {
			return err
		}

		logger.Infof("report saved to %s", path)
	}

	if !report.Passed() {
		return errSuiteFailed
	}

	return nil
}

func printAvailable(out io.Writer) error {
	data, err := suite.AvailableJSON(cases.All())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%s\n", data)

	return err
}

func newLoggerProvider(format string, out io.Writer) (*zaplog.Provider, error) {
	switch strings.ToLower(format) {
	case "", logFormatConsole:
		return zaplog.New(zapcore.Lock(zapcore.AddSync(out)), true), nil
	case logFormatJSON:
		return zaplog.New(zapcore.Lock(zapcore.AddSync(out)), false), nil
	default:
		return nil, fmt.Errorf("log format [%s] not supported", format)
	}
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Debugf("logger level set to %s", logLevel)
	}

	return nil
}

func getUserSetBool(cmd *cobra.Command, flagName, envKey string) (bool, error) {
	value, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil || value == "" {
		return false, err
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s [%s]: %w", flagName, value, err)
	}

	return b, nil
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}
