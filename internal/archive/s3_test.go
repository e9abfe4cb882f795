package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	put     *s3.PutObjectInput
	body    string
	putErr  error
	headErr error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func TestSave(t *testing.T) {
	cli := &fakeS3{}
	a := NewWithClient(cli, "bucket", "/reports/")
	a.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }

	loc, err := a.Save(context.Background(), Report{RequestID: "abc", Mode: "research", Provider: "Groq", Body: "# hi"})
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/reports/2026/03/09/abc.md", loc)
	assert.Equal(t, "reports/2026/03/09/abc.md", aws.ToString(cli.put.Key))
	assert.Equal(t, "# hi", cli.body)
	assert.Equal(t, "Groq", cli.put.Metadata["provider"])
}

func TestSaveErrors(t *testing.T) {
	a := NewWithClient(&fakeS3{putErr: errors.New("denied"), headErr: errors.New("missing")}, "b", "")
	_, err := a.Save(context.Background(), Report{RequestID: "x"})
	assert.ErrorContains(t, err, "denied")
	assert.ErrorContains(t, a.Check(context.Background()), "missing")
}
