package devops

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Secrets is the YAML body of the SecureString parameter that holds the
// credentials kept out of plain configuration. Empty fields are not applied.
type Secrets struct {
	DSN           string `yaml:"dsn"`
	MongoURI      string `yaml:"mongo_uri"`
	SigningSecret string `yaml:"signing_secret"`
	SlackToken    string `yaml:"slack_token"`
}

func ParseSecrets(body []byte) (*Secrets, error) {
	var parsed Secrets
	if err := yaml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	return &parsed, nil
}

// LoadSecrets reads and decrypts the named SSM parameter.
func LoadSecrets(ctx context.Context, paramName string) (*Secrets, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := ssm.NewFromConfig(cfg)

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get parameter %s: %w", paramName, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %s has no value", paramName)
	}

	return ParseSecrets([]byte(*out.Parameter.Value))
}
