package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Certificate is the printable view of a minted credential.
type Certificate struct {
	Title           string
	SkillName       string
	SkillLevel      int
	Category        string
	Recipient       string
	Issuer          string
	IssuedAt        time.Time
	Network         string
	TokenID         string
	ContractAddress string
	TransactionHash string
	MetadataURL     string
	Attributes      [][2]string
}

// CertificateRenderer renders minted credentials into a one page landscape PDF.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render creates the certificate PDF.
func (r *CertificateRenderer) Render(cert Certificate) ([]byte, error) {
	if cert.SkillName == "" || cert.TokenID == "" {
		return nil, fmt.Errorf("certificate requires skill name and token id")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetTitle(cert.Title, true)
	pdf.SetAuthor(cert.Issuer, true)
	pdf.AddPage()

	pdf.SetDrawColor(40, 70, 140)
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Helvetica", "B", 26)
	pdf.CellFormat(0, 16, strings.ToUpper(cert.Issuer), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "certifies that", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, cert.Recipient, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("has demonstrated %s proficiency at level %d/100", cert.SkillName, cert.SkillLevel), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Category: %s", cert.Category), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(80, 7, "Attribute", "1", 0, "C", false, 0, "")
	pdf.CellFormat(0, 7, "Value", "1", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, attr := range cert.Attributes {
		pdf.CellFormat(80, 6, attr[0], "1", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, attr[1], "1", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Courier", "", 8)
	lines := []string{
		fmt.Sprintf("Network:  %s", cert.Network),
		fmt.Sprintf("Token ID: %s", cert.TokenID),
		fmt.Sprintf("Contract: %s", cert.ContractAddress),
		fmt.Sprintf("Tx hash:  %s", cert.TransactionHash),
		fmt.Sprintf("Metadata: %s", cert.MetadataURL),
		fmt.Sprintf("Issued:   %s", cert.IssuedAt.UTC().Format(time.RFC3339)),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 5, line, "", 1, "", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
