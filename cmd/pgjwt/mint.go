package main

import (
	"fmt"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrEthical07/pgjwt/jwt"
)

type mintOptions struct {
	subject  string
	email    string
	role     string
	issuer   string
	audience []string
	ttl      time.Duration
}

func newMintCmd(c *cli) *cobra.Command {
	opts := &mintOptions{}

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint an HS256 token the module will accept",
		Long: `Mint signs a token carrying every claim the module requires (sub, email, role,
exp, iss and aud) plus iat and a random jti. The token is printed to stdout.`,
		Example: `  pgjwt mint --secret s3cr3t --role analyst --email u1@x.com --iss issuer-a --aud scope-a`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.secret()
			if err != nil {
				return err
			}
			token, err := mintToken(key, *opts, time.Now())
			if err != nil {
				return err
			}
			c.logger.Debug("token minted", zap.String("role", opts.role), zap.Duration("ttl", opts.ttl))
			_, err = fmt.Fprintln(c.out, token)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.subject, "sub", "", "Subject claim (default: random UUID)")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email claim")
	cmd.Flags().StringVar(&opts.role, "role", "", "Role claim")
	cmd.Flags().StringVar(&opts.issuer, "iss", "", "Issuer claim")
	cmd.Flags().StringSliceVar(&opts.audience, "aud", nil, "Audience claim, repeatable")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "Lifetime of the token")

	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("iss")
	_ = cmd.MarkFlagRequired("aud")

	return cmd
}

func mintToken(key []byte, opts mintOptions, now time.Time) (string, error) {
	if opts.ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %s", opts.ttl)
	}
	subject := opts.subject
	if subject == "" {
		subject = uuid.NewString()
	}

	signer, err := jwt.NewSigner(key)
	if err != nil {
		return "", err
	}
	return signer.Sign(jwt.Claims{
		Subject:   subject,
		Email:     opts.email,
		Role:      opts.role,
		Issuer:    opts.issuer,
		Audience:  gjwt.ClaimStrings(opts.audience),
		ExpiresAt: gjwt.NewNumericDate(now.Add(opts.ttl)),
		IssuedAt:  gjwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	})
}
