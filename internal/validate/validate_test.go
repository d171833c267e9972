package validate

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"souqbridge-identity/internal/domain"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
)

func file(name, ctype string, body []byte) Attachment {
	return Attachment{
		Filename:    name,
		ContentType: ctype,
		Size:        int64(len(body)),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(body)), nil },
	}
}

func newValidator() *Validator {
	v := New(1 << 20)
	v.Now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return v
}

func buyerForm() map[string]string {
	return map[string]string{
		"email":                 "  Sara@Example.com ",
		"password":              "s3cret-pass",
		"confirmPassword":       "s3cret-pass",
		"name":                  " Sara Ahmed ",
		"gender":                "أنثى",
		"birthdate":             "1995-04-02",
		"country":               "EG",
		"city":                  "Cairo",
		"buyer_privacyCheckbox": "on",
	}
}

func sellerForm() map[string]string {
	return map[string]string{
		"email":                   "co@example.com",
		"password":                "pw",
		"confirmPassword":         "pw",
		"company_name":            "Nile Trading Co",
		"business_type":           "wholesale",
		"commercial_registration": "CR-1",
		"tax_id":                  "TX-1",
		"company_address":         "1 Port St",
		"company_country":         "EG",
		"vat_number":              "VAT-1",
		"contact_person":          "Omar",
		"contact_position":        "CEO",
		"contact_phone":           "+20100000000",
		"seller_privacyCheckbox":  "on",
		"seller_rememberMe":       "on",
	}
}

func sellerFiles() map[string]Attachment {
	return map[string]Attachment{
		FileCommercialRegistration: file("cr.pdf", "application/pdf", pdfBytes),
		FileTax:                    file("tax.PNG", "image/png", pngBytes),
	}
}

func reason(t *testing.T, err error) (domain.Kind, string) {
	t.Helper()
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	return de.Kind, de.Msg
}

func TestValidate_Buyer(t *testing.T) {
	reg, err := newValidator().Validate("buyer", buyerForm(), nil)
	require.NoError(t, err)

	b, ok := reg.(BuyerRegistration)
	require.True(t, ok)
	assert.Equal(t, domain.RoleBuyer, b.Role())
	assert.Equal(t, "sara@example.com", b.Email)
	assert.Equal(t, "Sara Ahmed", b.Profile.FullName)
	assert.Equal(t, domain.GenderFemale, b.Profile.Gender)
	assert.Equal(t, "Cairo", b.Profile.City)
	assert.False(t, b.RememberMe)
	assert.Equal(t, "Sara", b.DisplayName())
}

func TestValidate_Seller(t *testing.T) {
	files := sellerFiles()
	files[FileLicense] = file("license.jpg", "image/jpeg", append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), make([]byte, 32)...))
	reg, err := newValidator().Validate("seller", sellerForm(), files)
	require.NoError(t, err)

	s, ok := reg.(SellerRegistration)
	require.True(t, ok)
	assert.True(t, s.RememberMe)
	assert.Equal(t, "Nile", s.DisplayName())
	require.NotNil(t, s.Documents.License)

	var seen []string
	require.NoError(t, s.Documents.Each(func(field string, _ Attachment) error {
		seen = append(seen, field)
		return nil
	}))
	assert.Equal(t, []string{FileCommercialRegistration, FileTax, FileLicense}, seen)
}

func TestValidate_RoleFirst(t *testing.T) {
	v := newValidator()
	_, err := v.Validate("", map[string]string{}, nil)
	_, msg := reason(t, err)
	assert.Equal(t, "account type is required", msg)

	_, err = v.Validate("admin", buyerForm(), nil)
	_, msg = reason(t, err)
	assert.Equal(t, "account type must be buyer or seller", msg)
}

func TestValidate_FailFastOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]string)
		want   string
	}{
		{"missing email", func(f map[string]string) { f["email"] = " " }, "email is required"},
		{"bad email beats bad password", func(f map[string]string) { f["email"] = "nope"; f["password"] = "" }, "email is not valid"},
		{"missing confirmation", func(f map[string]string) { delete(f, "confirmPassword") }, "password and confirmation are required"},
		{"mismatch beats missing name", func(f map[string]string) { f["confirmPassword"] = "x"; f["name"] = "" }, "passwords do not match"},
		{"long password", func(f map[string]string) {
			long := string(bytes.Repeat([]byte("a"), 73))
			f["password"], f["confirmPassword"] = long, long
		}, "password is too long"},
		{"missing name", func(f map[string]string) { f["name"] = "" }, "name is required"},
		{"missing gender", func(f map[string]string) { delete(f, "gender") }, "gender is required"},
		{"missing birthdate", func(f map[string]string) { f["birthdate"] = "" }, "birthdate is required"},
		{"missing country", func(f map[string]string) { f["country"] = "" }, "country is required"},
		{"unknown gender", func(f map[string]string) { f["gender"] = "robot" }, "gender is not recognized"},
		{"bad birthdate", func(f map[string]string) { f["birthdate"] = "02/04/1995" }, "birthdate must be YYYY-MM-DD"},
		{"future birthdate", func(f map[string]string) { f["birthdate"] = "2030-01-01" }, "birthdate is in the future"},
		{"no consent", func(f map[string]string) { delete(f, "buyer_privacyCheckbox") }, "privacy policy must be accepted"},
		{"seller consent does not count", func(f map[string]string) {
			delete(f, "buyer_privacyCheckbox")
			f["seller_privacyCheckbox"] = "on"
		}, "privacy policy must be accepted"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := buyerForm()
			tc.mutate(f)
			_, err := newValidator().Validate("buyer", f, nil)
			kind, msg := reason(t, err)
			assert.Equal(t, domain.KindValidation, kind)
			assert.Equal(t, tc.want, msg)
		})
	}
}

func TestValidate_SellerEachRequiredField(t *testing.T) {
	for _, k := range sellerRequired {
		t.Run(k, func(t *testing.T) {
			f := sellerForm()
			f[k] = "  "
			_, err := newValidator().Validate("seller", f, sellerFiles())
			_, msg := reason(t, err)
			assert.Equal(t, k+" is required", msg)
		})
	}
}

func TestValidate_SellerDocumentsRequired(t *testing.T) {
	for _, missing := range []string{FileCommercialRegistration, FileTax} {
		files := sellerFiles()
		delete(files, missing)
		_, err := newValidator().Validate("seller", sellerForm(), files)
		kind, msg := reason(t, err)
		assert.Equal(t, domain.KindValidation, kind)
		assert.Equal(t, "commercial registration and tax documents are required", msg)
	}
}

func TestValidate_BuyerIgnoresFiles(t *testing.T) {
	_, err := newValidator().Validate("buyer", buyerForm(), map[string]Attachment{
		FileTax: file("x.exe", "application/octet-stream", []byte("MZ")),
	})
	assert.NoError(t, err)
}

func TestPolicy_Check(t *testing.T) {
	p := DefaultPolicy(64)
	cases := []struct {
		name string
		a    Attachment
		want string
	}{
		{"extension", file("doc.exe", "application/pdf", pdfBytes), "tax_file: file type not allowed"},
		{"declared type", file("doc.pdf", "text/html", pdfBytes), "tax_file: content type not allowed"},
		{"declared type mismatches extension", file("doc.pdf", "image/png", pdfBytes), "tax_file: content type not allowed"},
		{"empty", file("doc.pdf", "application/pdf", nil), "tax_file: file is empty"},
		{"too large", file("doc.pdf", "application/pdf", bytes.Repeat([]byte("%PDF-"), 20)), "tax_file: file is too large"},
		{"content lies", file("doc.pdf", "application/pdf", []byte("<html><body>hi</body></html>")), "tax_file: file content does not match its type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := p.Check(FileTax, tc.a)
			kind, msg := reason(t, err)
			assert.Equal(t, domain.KindUpload, kind)
			assert.Equal(t, tc.want, msg)
		})
	}

	assert.NoError(t, p.Check(FileTax, file("doc.pdf", "application/pdf; charset=binary", pdfBytes)))

	broken := file("doc.pdf", "application/pdf", pdfBytes)
	broken.Open = func() (io.ReadCloser, error) { return nil, errors.New("disk gone") }
	kind, _ := reason(t, p.Check(FileTax, broken))
	assert.Equal(t, domain.KindUpload, kind)
}

func TestValidate_SellerRejectsBadAttachment(t *testing.T) {
	files := sellerFiles()
	files[FileLicense] = file("license.gif", "image/gif", []byte("GIF89a"))
	_, err := newValidator().Validate("seller", sellerForm(), files)
	kind, msg := reason(t, err)
	assert.Equal(t, domain.KindUpload, kind)
	assert.Equal(t, "license_file: file type not allowed", msg)
}

func TestNormalizeGender(t *testing.T) {
	cases := map[string]domain.Gender{
		"male": domain.GenderMale, "Male": domain.GenderMale, " MALE ": domain.GenderMale, "ذكر": domain.GenderMale,
		"female": domain.GenderFemale, "F": domain.GenderFemale, "أنثى": domain.GenderFemale,
		"other": domain.GenderOther, "اخرى": domain.GenderOther, "أخرى": domain.GenderOther,
	}
	for in, want := range cases {
		got, ok := NormalizeGender(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "x", "unknown", "malee"} {
		_, ok := NormalizeGender(in)
		assert.False(t, ok, in)
	}
}

func TestChecked(t *testing.T) {
	for _, s := range []string{"on", "true", "TRUE", "1", " yes "} {
		assert.True(t, Checked(s), s)
	}
	for _, s := range []string{"", "off", "false", "0"} {
		assert.False(t, Checked(s), s)
	}
}

func TestEmail(t *testing.T) {
	v := newValidator()
	assert.True(t, v.Email("a@b.co"))
	assert.False(t, v.Email("a@"))
	assert.False(t, v.Email(""))
}
