package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
)

// Options selects how the client verifies the API and presents itself
type Options struct {
	// CAFile is an extra CA bundle, e.g. for a corporate proxy
	CAFile string `mapstructure:"ca_file"`

	// CertFile and KeyFile hold a client certificate for mTLS
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`

	// Insecure skips server verification, test setups only
	Insecure bool `mapstructure:"insecure"`
}

// Enabled reports whether any option differs from the system defaults
func (o Options) Enabled() bool {
	return o.CAFile != "" || o.CertFile != "" || o.KeyFile != "" || o.Insecure
}

// ClientTLSConfig builds the TLS configuration for API connections
func ClientTLSConfig(opts Options) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.Insecure,
	}

	if (opts.CertFile == "") != (opts.KeyFile == "") {
		return nil, fmt.Errorf("client certificate and key must be given together")
	}
	if opts.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if opts.CAFile != "" {
		caCert, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate %s", opts.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// Transport returns a base transport using opts. Without options it is
// http.DefaultTransport.
func Transport(opts Options) (http.RoundTripper, error) {
	if !opts.Enabled() {
		return http.DefaultTransport, nil
	}
	tlsConfig, err := ClientTLSConfig(opts)
	if err != nil {
		return nil, err
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = tlsConfig
	return base, nil
}

// WriteCertificatePEM writes DER encoded certificates to path
func WriteCertificatePEM(path string, certs ...*x509.Certificate) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cert file: %w", err)
	}
	defer out.Close()

	for _, cert := range certs {
		if err := pem.Encode(out, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}); err != nil {
			return fmt.Errorf("failed to write cert: %w", err)
		}
	}
	return nil
}
