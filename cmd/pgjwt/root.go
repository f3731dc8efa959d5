package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MrEthical07/pgjwt/internal/logging"
	"github.com/MrEthical07/pgjwt/secret"
)

const (
	logLevelKey   = "log.level"
	logFormatKey  = "log.format"
	secretKey     = "secret"
	secretFileKey = "secret_file"
	envFileKey    = "env_file"
)

var errNoSecret = errors.New("no secret: set --secret, --secret-file, PGJWT_SECRET or PGJWT_SECRET_FILE")

// cli carries state shared by every subcommand of one invocation.
type cli struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	logger *zap.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{
		v:      viper.New(),
		out:    out,
		errOut: errOut,
		logger: zap.NewNop(),
	}

	root := &cobra.Command{
		Use:   "pgjwt",
		Short: "Mint and check tokens for the pg_jwt_validator module",
		Long: `pgjwt works with the HS256 tokens accepted by the pg_jwt_validator OAuth module.
It mints tokens for testing, runs the module's validation logic locally, and checks the
module's configuration file.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	_ = c.v.BindPFlag(logLevelKey, flags.Lookup("log-level"))
	flags.String("log-format", "console", "Log format (console, json)")
	_ = c.v.BindPFlag(logFormatKey, flags.Lookup("log-format"))
	flags.String("secret", "", "Shared HS256 secret")
	_ = c.v.BindPFlag(secretKey, flags.Lookup("secret"))
	flags.String("secret-file", "", "File holding the shared secret")
	_ = c.v.BindPFlag(secretFileKey, flags.Lookup("secret-file"))
	flags.String("env-file", ".env", "Dotenv file loaded before reading PGJWT_* variables")
	_ = c.v.BindPFlag(envFileKey, flags.Lookup("env-file"))

	c.v.SetEnvPrefix("PGJWT")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(
		newMintCmd(c),
		newVerifyCmd(c),
		newConfigCmd(c),
		newBenchCmd(c),
	)
	return root
}

func (c *cli) init() error {
	if path := c.v.GetString(envFileKey); path != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	logger, err := logging.New(c.v.GetString(logLevelKey), c.v.GetString(logFormatKey), zapcore.AddSync(c.errOut))
	if err != nil {
		return err
	}
	c.logger = logger
	return nil
}

// secret returns the signing secret from the flag, env or secret file, in that order.
func (c *cli) secret() ([]byte, error) {
	if s := c.v.GetString(secretKey); s != "" {
		return []byte(s), nil
	}
	if path := c.v.GetString(secretFileKey); path != "" {
		b, err := secret.FromFile(path)
		if err != nil {
			return nil, fmt.Errorf("read secret file: %w", err)
		}
		return b, nil
	}
	return nil, errNoSecret
}
