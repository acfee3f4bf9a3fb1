package devops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSecrets(t *testing.T) {
	body := []byte(`
dsn: "app:pw@tcp(db:3306)/sitepunch?parseTime=true&loc=UTC"
signing_secret: c2l0ZXB1bmNoLXNpZ25pbmcta2V5
slack_token: xoxb-123
`)
	s, err := ParseSecrets(body)
	require.NoError(t, err)
	assert.Equal(t, "app:pw@tcp(db:3306)/sitepunch?parseTime=true&loc=UTC", s.DSN)
	assert.Equal(t, "c2l0ZXB1bmNoLXNpZ25pbmcta2V5", s.SigningSecret)
	assert.Equal(t, "xoxb-123", s.SlackToken)
	assert.Empty(t, s.MongoURI)

	_, err = ParseSecrets([]byte("dsn: [unterminated"))
	assert.Error(t, err)
}
