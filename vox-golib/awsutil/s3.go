package awsutil

import (
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/voxlab/voxlab/vox-golib/envutil"
)

var (
	defaultRegion = envutil.GetenvDefault("AWS_REGION", "us-west-1")
	// Path to the S3 cache used for corpus manifests, waveforms and code files.
	cacheroot = envutil.GetenvDefault("VOX_S3CACHE", "/var/vox/s3cache")
)

// IsS3URI returns true if the path is an s3 uri.
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// SetCacheRoot allows for direct configuration of the cacheroot
func SetCacheRoot(path string) {
	cacheroot = path
}

// NewS3 creates an s3 client.
func NewS3(region string) (*s3.S3, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}
	return s3.New(sess, aws.NewConfig().WithRegion(region)), nil
}

// NewS3Reader returns an io.ReadCloser that will read the contents
// of the file pointed to by the uri. URI will be of the form
// s3://bucket-name/path/to/file
func NewS3Reader(uri string) (io.ReadCloser, error) {
	s3url, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}
	return objectReader(s3url)
}

func objectReader(uri *url.URL) (io.ReadCloser, error) {
	region, err := objectRegion(uri)
	if err != nil {
		return nil, fmt.Errorf("unable to determine region: %s", err)
	}

	s3client, err := NewS3(region)
	if err != nil {
		return nil, err
	}

	key := strings.TrimPrefix(uri.Path, "/")
	getObjInput := &s3.GetObjectInput{
		Bucket: &uri.Host,
		Key:    &key,
	}

	req, getObjOutput := s3client.GetObjectRequest(getObjInput)
	err = req.Send()
	return getObjOutput.Body, err
}

func objectRegion(uri *url.URL) (string, error) {
	s3client, err := NewS3(defaultRegion)
	if err != nil {
		return "", err
	}

	// Discover the region that this bucket is located in
	bucketLocInput := &s3.GetBucketLocationInput{
		Bucket: &uri.Host,
	}
	bucketLocOutput, err := s3client.GetBucketLocation(bucketLocInput)
	if err != nil {
		return "", err
	}

	if bucketLocOutput.LocationConstraint == nil {
		return "us-east-1", nil
	}
	return *bucketLocOutput.LocationConstraint, nil
}

// CachePathAt returns the location where the s3 file will be saved on disk,
// rooted at the specified cacheroot.
func CachePathAt(cacheroot string, s3url *url.URL) string {
	return filepath.Join(cacheroot, s3url.Host, s3url.Path)
}

// CachedReaderOptions contains options for a cached s3 reader
type CachedReaderOptions struct {
	CacheRoot string
	Logger    io.Writer
}

// NewCachedS3Reader returns an io.ReadCloser that will read the
// contents of the file pointed to by the uri. If the file exists in
// the local cache then its MD5 hash will be computed and compared to
// that of the remote S3 object. If they match then the file will be
// read from the cache; if not then the file will be read from S3 while
// being copied into the local cache as it is received.
func NewCachedS3Reader(uri string) (io.ReadCloser, error) {
	return NewCachedS3ReaderWithOptions(CachedReaderOptions{
		CacheRoot: cacheroot,
		Logger:    os.Stderr,
	}, uri)
}

func logf(w io.Writer, fmtstr string, args ...interface{}) {
	if w == nil {
		return
	}
	w.Write([]byte(fmt.Sprintf(fmtstr, args...)))
}

// NewCachedS3ReaderWithOptions returns a cached s3 reader using the specified options.
func NewCachedS3ReaderWithOptions(opts CachedReaderOptions, uri string) (io.ReadCloser, error) {
	s3url, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}

	if opts.CacheRoot == "" {
		opts.CacheRoot = cacheroot
	}

	cachepath := CachePathAt(opts.CacheRoot, s3url)

	// Get the header/etag for the remote object
	var etag []byte
	head, err := headS3URL(s3url)
	if err != nil {
		head = nil
		logf(opts.Logger, "failed to compute remote checksum: %v, will try local cache\n", err)
	} else {
		etag = checksumFromHead(head)
	}

	// Attempt to load it from the cache
	r, err := tryCache(etag, cachepath)
	if err == nil {
		logf(opts.Logger, "cache hit on %s\n", uri)
		return r, nil
	}

	// Fall back to loading from S3 while copying into the local cache
	logf(opts.Logger, "cache miss on %s: %v\n", uri, err)
	r, err = NewS3Reader(uri)
	if err != nil {
		return nil, err
	}

	cacherootTmp := filepath.Join(opts.CacheRoot, "tmp")
	err = os.MkdirAll(cacherootTmp, os.ModePerm)
	if err != nil {
		return nil, err
	}
	return newLateCopyReader(r, cachepath, cacherootTmp, etag)
}

type bufferedS3Writer struct {
	f     *os.File
	s3uri *url.URL
}

// Write writes to disk
func (w bufferedS3Writer) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Close flushes to disk, copies the written data to s3, and closes the file
func (w bufferedS3Writer) Close() error {
	defer os.Remove(w.f.Name()) // delete the buffer file from disk
	defer w.f.Close()           // after closing the buffer file handle

	w.f.Sync()
	_, err := w.f.Seek(0, 0) // seek to beginning to allow s3 library to read
	if err != nil {
		return err
	}

	region, err := objectRegion(w.s3uri)
	if err != nil {
		return fmt.Errorf("unable to determine region: %s", err)
	}

	s3client, err := NewS3(region)
	if err != nil {
		return err
	}

	key := strings.TrimPrefix(w.s3uri.Path, "/")
	input := &s3.PutObjectInput{
		Bucket: aws.String(w.s3uri.Host),
		Key:    aws.String(key),
		Body:   w.f,
	}
	_, err = s3client.PutObject(input)
	return err
}

func (w bufferedS3Writer) Name() string {
	return w.s3uri.String()
}

// NamedWriteCloser is a file-like object extending io.WriteCloser with a string Name() similar to os.File.Name()
type NamedWriteCloser interface {
	io.WriteCloser
	Name() string
}

// NewBufferedS3Writer returns an io.WriteCloser that will write
// to disk and upload to S3 on Close
func NewBufferedS3Writer(uri string) (NamedWriteCloser, error) {
	s3url, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}

	f, err := ioutil.TempFile("", "s3buffer")
	if err != nil {
		return nil, err
	}
	return bufferedS3Writer{f: f, s3uri: s3url}, nil
}

// S3ListObjects lists the objects in an s3 bucket with a given prefix.
// NOTE: we ignore objects with size 0 since they typically correspond
// to directories and are thus not fetchable.
func S3ListObjects(region, bucket, prefix string) ([]string, error) {
	client, err := NewS3(region)
	if err != nil {
		return nil, err
	}

	params := &s3.ListObjectsInput{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}

	var keys []string
	err = client.ListObjectsPages(params, func(p *s3.ListObjectsOutput, lastPage bool) bool {
		for _, obj := range p.Contents {
			if *obj.Size == 0 {
				continue
			}
			keys = append(keys, *obj.Key)
		}
		return true
	})

	if err != nil {
		return nil, fmt.Errorf("error list objects in `%s` (%s): %v", bucket, region, err)
	}
	return keys, nil
}

// ValidateURI checks whether the given uri points to S3.
func ValidateURI(uri string) (*url.URL, error) {
	s3url, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	if s3url.Scheme != "s3" {
		return nil, fmt.Errorf("url is not a s3 path: %s", s3url.String())
	}
	return s3url, nil
}

// Exists returns whether an object exists at the provided URI
func Exists(uri string) (bool, error) {
	s3url, err := ValidateURI(uri)
	if err != nil {
		return false, err
	}
	_, err = headS3URL(s3url)
	return err == nil, nil
}
