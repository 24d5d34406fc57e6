package gbio

import (
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
)

// init registers the "s3" scheme with grailbio/base/file so that every path
// accepted by OpenBytes, OpenUint64s, and CreateWriter transparently supports
// s3:// URLs, per encoding/bamprovider/provider_test.go's registration
// pattern.
func init() {
	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})
}
