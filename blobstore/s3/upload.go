package s3

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultPartSize is the multipart part size used when none is set. Index
// files smaller than one part are sent with a single PutObject.
const DefaultPartSize int64 = 8 << 20

var errAborted = errors.New("s3: upload aborted")

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// computeCRC32C returns the CRC32C of data in the base64 big-endian form S3 expects.
func computeCRC32C(data []byte) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], crc32.Checksum(data, crc32cTable))
	return base64.StdEncoding.EncodeToString(b[:])
}

// startUpload streams everything written to the returned writer into key.
// Parts are checksummed with CRC32C and a failed multipart upload is
// aborted on S3, so a partial index never appears under key.
func (s *Store) startUpload(ctx context.Context, key string) *writer {
	uploader := manager.NewUploader(s.client, func(u *manager.Uploader) {
		u.PartSize = s.partSize
		u.LeavePartsOnError = false
	})

	ctx, cancel := context.WithCancelCause(ctx)
	pr, pw := io.Pipe()
	w := &writer{key: key, pw: pw, cancel: cancel, done: make(chan error, 1)}

	go func() {
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:            aws.String(s.bucket),
			Key:               aws.String(key),
			Body:              pr,
			ChecksumAlgorithm: types.ChecksumAlgorithmCrc32c,
		})
		if err != nil {
			err = fmt.Errorf("s3: upload %s: %w", key, err)
		}
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w
}

// writer is a blob upload in progress. It is not safe for concurrent use.
type writer struct {
	key    string
	pw     *io.PipeWriter
	cancel context.CancelCauseFunc
	done   chan error
	closed bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	return w.pw.Write(p)
}

// Sync is a no-op; data is committed on Close.
func (w *writer) Sync() error { return nil }

// Close finishes the upload and waits for S3 to acknowledge it.
func (w *writer) Close() error {
	if w.closed {
		return fmt.Errorf("s3: writer for %s already closed", w.key)
	}
	w.closed = true
	defer w.cancel(nil)

	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}

// Abort cancels the upload and waits for it to unwind. Nothing becomes
// visible under the blob name.
func (w *writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.cancel(errAborted)
	_ = w.pw.CloseWithError(errAborted)
	<-w.done
	return nil
}

// putWithChecksum uploads a small blob with CRC32C integrity validation.
func putWithChecksum(ctx context.Context, client Client, bucket, key string, data []byte) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(bucket),
		Key:            aws.String(key),
		Body:           bytes.NewReader(data),
		ContentLength:  aws.Int64(int64(len(data))),
		ChecksumCRC32C: aws.String(computeCRC32C(data)),
	})
	return err
}
