package identity

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// SerializeIdentity builds a creator blob: a protobuf message whose field 1
// is the MSP id and field 2 the PEM-encoded certificate.
func SerializeIdentity(mspID string, certPEM []byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, mspID)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, certPEM)
	return b
}

// ParseSerializedIdentity is the inverse of SerializeIdentity.
func ParseSerializedIdentity(blob []byte) (mspID string, certPEM []byte, err error) {
	for len(blob) > 0 {
		num, typ, n := protowire.ConsumeTag(blob)
		if n < 0 {
			return "", nil, fmt.Errorf("parse identity tag: %w", protowire.ParseError(n))
		}
		blob = blob[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, blob)
			if n < 0 {
				return "", nil, fmt.Errorf("skip identity field %d: %w", num, protowire.ParseError(n))
			}
			blob = blob[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(blob)
		if n < 0 {
			return "", nil, fmt.Errorf("parse identity field %d: %w", num, protowire.ParseError(n))
		}
		blob = blob[n:]
		switch num {
		case 1:
			mspID = string(v)
		case 2:
			certPEM = append([]byte(nil), v...)
		}
	}
	if mspID == "" {
		return "", nil, fmt.Errorf("identity has no msp id")
	}
	return mspID, certPEM, nil
}

// FromCertificate builds the creator blob for an X.509 client certificate.
// The MSP id is the certificate's first Organization followed by "MSP".
func FromCertificate(cert *x509.Certificate) ([]byte, error) {
	if cert == nil {
		return nil, fmt.Errorf("nil certificate")
	}
	if len(cert.Subject.Organization) == 0 || cert.Subject.Organization[0] == "" {
		return nil, fmt.Errorf("certificate subject has no organization")
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	return SerializeIdentity(cert.Subject.Organization[0]+providerMarker, certPEM), nil
}
