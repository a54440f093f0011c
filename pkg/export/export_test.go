package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderCSV(t *testing.T) {
	data := Dataset{Headers: []string{"id", "status", "skill"}}
	data.AppendRow("tx-1", "success", "React.js")
	data.AppendRow("tx-2", "failed")

	out, err := RenderCSV(data)
	require.NoError(t, err)
	require.Equal(t, "id,status,skill\ntx-1,success,React.js\ntx-2,failed,\n", string(out))

	_, err = RenderCSV(Dataset{})
	require.Error(t, err)
}

func TestCertificateRenderer(t *testing.T) {
	renderer := NewCertificateRenderer()
	out, err := renderer.Render(Certificate{
		Title:           "React.js Skill Credential",
		SkillName:       "React.js",
		SkillLevel:      92,
		Category:        "frontend",
		Recipient:       "user-1",
		Issuer:          "SkillFlow Academy",
		IssuedAt:        time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Network:         "polygon-amoy",
		TokenID:         "4242",
		ContractAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		TransactionHash: "0xabc",
		Attributes:      [][2]string{{"Skill Level", "92"}},
	})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = renderer.Render(Certificate{})
	require.Error(t, err)
}
