package pki

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	errorutils "github.com/unionpay-go/unionpay/errors"
)

// OpenSSLToolchain implements Toolchain by shelling out to the openssl
// binary, for deployments that mandate an external cryptographic
// toolchain. Success is the subprocess exit status, in and out data
// moves through scratch files since openssl works on file paths.
type OpenSSLToolchain struct {
	// Binary is the openssl executable, defaults to "openssl" on PATH
	Binary string
}

var _ Toolchain = &OpenSSLToolchain{}

// NewOpenSSLToolchain returns a toolchain using the openssl binary on PATH
func NewOpenSSLToolchain() *OpenSSLToolchain {
	return &OpenSSLToolchain{Binary: "openssl"}
}

func (o *OpenSSLToolchain) binary() string {
	if o.Binary != "" {
		return o.Binary
	}
	return "openssl"
}

// scratch writes data to a temp file and returns its path with a cleanup
func scratch(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "unionpay-*.pem")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// run executes the openssl subprocess, blocking until it exits
func (o *OpenSSLToolchain) run(args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(o.binary(), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errorutils.New(err, "openssl "+args[0]+" failed", strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// ExtractCertificate decrypts a pkcs12 container into a PEM bundle
func (o *OpenSSLToolchain) ExtractCertificate(container []byte, passphrase string) ([]byte, error) {
	in, cleanIn, err := scratch(container)
	if err != nil {
		return nil, err
	}
	defer cleanIn()

	out, cleanOut, err := scratch(nil)
	if err != nil {
		return nil, err
	}
	defer cleanOut()

	if _, err := o.run(pkcs12Args(in, out, passphrase)...); err != nil {
		return nil, err
	}
	return os.ReadFile(out)
}

// pkcs12Args always carries -passin, an empty passphrase must reach
// openssl as pass: rather than leave the subprocess waiting on an
// interactive prompt
func pkcs12Args(in, out, passphrase string) []string {
	return []string{"pkcs12", "-in", in, "-nodes", "-out", out, "-passin", "pass:" + passphrase}
}

// ExtractKeys derives the private and public key PEM from a bundle
func (o *OpenSSLToolchain) ExtractKeys(bundlePEM []byte) ([]byte, []byte, error) {
	in, cleanIn, err := scratch(bundlePEM)
	if err != nil {
		return nil, nil, err
	}
	defer cleanIn()

	keys := make([][]byte, 2)
	for i, extra := range [][]string{nil, {"-pubout"}} {
		out, cleanOut, err := scratch(nil)
		if err != nil {
			return nil, nil, err
		}

		args := append([]string{"rsa", "-in", in, "-out", out}, extra...)
		if _, err := o.run(args...); err != nil {
			cleanOut()
			return nil, nil, err
		}
		keys[i], err = os.ReadFile(out)
		cleanOut()
		if err != nil {
			return nil, nil, err
		}
	}
	return keys[0], keys[1], nil
}

// SerialNumber reads the certificate serial number in hexadecimal
func (o *OpenSSLToolchain) SerialNumber(certPEM []byte) (string, error) {
	in, cleanIn, err := scratch(certPEM)
	if err != nil {
		return "", err
	}
	defer cleanIn()

	stdout, err := o.run("x509", "-in", in, "-serial", "-noout")
	if err != nil {
		return "", err
	}

	serial := strings.TrimSpace(string(stdout))
	if !strings.HasPrefix(serial, "serial=") {
		return "", fmt.Errorf("%w: unexpected serial output", ErrKeyExtraction)
	}
	return strings.TrimPrefix(serial, "serial="), nil
}

// VerifyChain validates the leaf against the anchors via openssl verify.
// Exit status zero is the only success condition.
func (o *OpenSSLToolchain) VerifyChain(leafPEM []byte, anchors *TrustAnchors) error {
	leaf, cleanLeaf, err := scratch(leafPEM)
	if err != nil {
		return err
	}
	defer cleanLeaf()

	root, cleanRoot, err := scratch(anchors.RootPEM())
	if err != nil {
		return err
	}
	defer cleanRoot()

	args := []string{"verify", "-CAfile", root}
	for _, interPEM := range anchors.IntermediatePEMs() {
		inter, cleanInter, err := scratch(interPEM)
		if err != nil {
			return err
		}
		defer cleanInter()
		args = append(args, "-untrusted", inter)
	}
	args = append(args, leaf)

	if _, err := o.run(args...); err != nil {
		return fmt.Errorf("%w: %s", ErrChainVerification, err)
	}
	return nil
}
