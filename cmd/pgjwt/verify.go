package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/pgjwt"
	"github.com/MrEthical07/pgjwt/secret"
)

var errDenied = errors.New("token denied")

// goAllocator stands in for the server's allocator when validating outside the server.
type goAllocator struct {
	bufs map[unsafe.Pointer][]byte
}

func newGoAllocator() *goAllocator {
	return &goAllocator{bufs: make(map[unsafe.Pointer][]byte)}
}

func (a *goAllocator) Strdup(s string) (unsafe.Pointer, error) {
	b := append([]byte(s), 0)
	p := unsafe.Pointer(&b[0])
	a.bufs[p] = b
	return p, nil
}

func (a *goAllocator) String(p unsafe.Pointer) string {
	b, ok := a.bufs[p]
	if !ok {
		return ""
	}
	return string(b[:len(b)-1])
}

type verifyOptions struct {
	token    string
	role     string
	issuer   string
	audience string
}

func newVerifyCmd(c *cli) *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify [token]",
		Short: "Run the module's validation against a token",
		Long: `Verify runs the same startup, validate and shutdown sequence the server does and
prints the authenticated identity. Use "-" or omit the argument to read the token from stdin.
The command exits non-zero when the token is denied; the reason is logged at warn level.`,
		Example: `  pgjwt verify --secret s3cr3t --role analyst eyJhbGciOi...`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.token = args[0]
			}
			if opts.token == "" || opts.token == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				opts.token = strings.TrimSpace(string(b))
			}

			key, err := c.secret()
			if err != nil && !errors.Is(err, errNoSecret) {
				return err
			}
			identity, err := verifyToken(c, key, *opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "authorized identity=%s\n", identity)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.role, "role", "", "Role the client asks to connect as")
	cmd.Flags().StringVar(&opts.issuer, "iss", "", "Require this issuer")
	cmd.Flags().StringVar(&opts.audience, "aud", "", "Require this audience")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func verifyToken(c *cli, key []byte, opts verifyOptions) (string, error) {
	cfg := pgjwt.DefaultConfig()
	cfg.Metrics.Enabled = false
	cfg.Metrics.EnableLatencyHistograms = false

	store := &secret.Store{}
	store.Init(key)

	v, err := pgjwt.New().
		WithConfig(cfg).
		WithLogger(c.logger).
		WithSecretStore(store).
		Build()
	if err != nil {
		return "", err
	}
	defer v.Close()

	h := v.Startup()
	defer v.Shutdown(h)

	alloc := newGoAllocator()
	res, err := v.Validate(h, pgjwt.Request{
		Token:    opts.token,
		Role:     opts.role,
		Issuer:   opts.issuer,
		Audience: opts.audience,
	}, alloc)
	if err != nil {
		return "", err
	}
	if !res.Authorized {
		return "", errDenied
	}
	return alloc.String(res.Identity), nil
}
