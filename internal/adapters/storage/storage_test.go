package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/test/helpers"
)

// fakeS3 keeps objects in a map and answers the calls S3Storage makes
type fakeS3 struct {
	objects       map[string][]byte
	modified      map[string]time.Time
	bucketExists  bool
	createdBucket *s3.CreateBucketInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, modified: map[string]time.Time{}, bucketExists: true}
}

func (f *fakeS3) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.modified[key] = time.Now()
	return &manager.UploadOutput{Location: "https://bucket.s3/" + key}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for key, data := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			modified := f.modified[key]
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key), Size: int64(len(data)), LastModified: &modified})
		}
	}
	return out, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if !f.bucketExists {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.createdBucket = in
	f.bucketExists = true
	return &s3.CreateBucketOutput{}, nil
}

func TestS3Storage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := newS3Storage(fake, fake, "tajalli", "ap-south-1", helpers.TestLogger())

	key := ReceiptKey(uuid.New(), time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC))
	location, err := store.Upload(ctx, key, strings.NewReader("TAJALLI DRY FRUITS"), "")
	require.NoError(t, err)
	assert.Contains(t, location, key)

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "TAJALLI DRY FRUITS", string(data))

	objects, err := store.List(ctx, ReceiptsPrefix)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, key, objects[0].Key)
	assert.Equal(t, int64(len("TAJALLI DRY FRUITS")), objects[0].Size)

	require.NoError(t, store.Delete(ctx, key))
	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestS3Storage_DownloadMissing(t *testing.T) {
	fake := newFakeS3()
	store := newS3Storage(fake, fake, "tajalli", "ap-south-1", helpers.TestLogger())

	_, err := store.Download(context.Background(), "imports/nope.xlsx")
	assert.ErrorIs(t, err, ports.ErrObjectNotFound)
}

func TestS3Storage_EnsureBucket(t *testing.T) {
	tests := []struct {
		name           string
		region         string
		wantConstraint bool
	}{
		{name: "regional_bucket", region: "ap-south-1", wantConstraint: true},
		{name: "us_east_1_has_no_constraint", region: "us-east-1", wantConstraint: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeS3()
			fake.bucketExists = false
			store := newS3Storage(fake, fake, "tajalli", tt.region, helpers.TestLogger())

			require.NoError(t, store.ensureBucket(context.Background()))
			require.NotNil(t, fake.createdBucket)
			assert.Equal(t, tt.wantConstraint, fake.createdBucket.CreateBucketConfiguration != nil)
		})
	}
}

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir(), helpers.TestLogger())
	require.NoError(t, err)

	jobID := uuid.New()
	key := ImportKey(jobID, "restock-oct.xlsx")

	_, err = store.Upload(ctx, key, strings.NewReader("sheet"), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	require.NoError(t, err)

	data, err := store.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "sheet", string(data))

	objects, err := store.List(ctx, ImportsPrefix)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, key, objects[0].Key)

	none, err := store.List(ctx, ReceiptsPrefix)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")

	_, err = store.Download(ctx, key)
	assert.ErrorIs(t, err, ports.ErrObjectNotFound)
}

func TestLocalStorage_KeysStayInsideBase(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base, helpers.TestLogger())
	require.NoError(t, err)

	path, err := store.resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, base))

	_, err = store.resolve("/")
	assert.Error(t, err)
}

func TestImportKey(t *testing.T) {
	jobID := uuid.MustParse("7f1c2c3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f")

	tests := []struct {
		name     string
		fileName string
		want     string
	}{
		{name: "plain_name", fileName: "invoice.pdf", want: "imports/7f1c2c3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f/invoice.pdf"},
		{name: "path_is_stripped", fileName: "../../secret/invoice.pdf", want: "imports/7f1c2c3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f/invoice.pdf"},
		{name: "empty_name", fileName: "", want: "imports/7f1c2c3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f/upload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImportKey(jobID, tt.fileName))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("local_backend", func(t *testing.T) {
		fs, err := New(context.Background(), Options{Backend: BackendLocal, LocalDir: t.TempDir()}, helpers.TestLogger())
		require.NoError(t, err)
		assert.IsType(t, &LocalStorage{}, fs)
	})

	t.Run("unknown_backend", func(t *testing.T) {
		_, err := New(context.Background(), Options{Backend: "gcs"}, helpers.TestLogger())
		assert.ErrorContains(t, err, `unknown storage backend "gcs"`)
	})
}
