// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package awsutil

import (
	"bytes"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// MockS3Client - in-memory stand-in for the product store in unit tests.
// Implements the S3 operations the file access layer calls; anything else
// panics through the embedded unimplemented interface. PageSize forces
// ListObjectsV2 to paginate so continuation handling gets exercised.
type MockS3Client struct {
	s3iface.S3API

	PageSize int

	mutex   sync.Mutex
	objects map[string][]byte
}

func NewMockS3Client() *MockS3Client {
	return &MockS3Client{objects: map[string][]byte{}}
}

func mockKey(bucket, key string) string {
	return bucket + "/" + key
}

func (m *MockS3Client) ListObjectsV2(input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	want := mockKey(aws.StringValue(input.Bucket), aws.StringValue(input.Prefix))
	bucketPrefix := aws.StringValue(input.Bucket) + "/"

	keys := []string{}
	for k := range m.objects {
		if strings.HasPrefix(k, want) {
			keys = append(keys, strings.TrimPrefix(k, bucketPrefix))
		}
	}
	sort.Strings(keys)

	// Continuation tokens are the first key of the next page
	if token := aws.StringValue(input.ContinuationToken); len(token) > 0 {
		start := sort.SearchStrings(keys, token)
		keys = keys[start:]
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	limit := len(keys)
	if m.PageSize > 0 && limit > m.PageSize {
		limit = m.PageSize
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[limit])
	}
	for _, k := range keys[:limit] {
		out.Contents = append(out.Contents, &s3.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (m *MockS3Client) HeadObject(input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	k := mockKey(aws.StringValue(input.Bucket), aws.StringValue(input.Key))
	if _, ok := m.objects[k]; !ok {
		return nil, awserr.New("NotFound", "object not found: "+k, nil)
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *MockS3Client) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	k := mockKey(aws.StringValue(input.Bucket), aws.StringValue(input.Key))
	data, ok := m.objects[k]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "object not found: "+k, nil)
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func (m *MockS3Client) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.objects[mockKey(aws.StringValue(input.Bucket), aws.StringValue(input.Key))] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *MockS3Client) DeleteObject(input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.objects, mockKey(aws.StringValue(input.Bucket), aws.StringValue(input.Key)))
	return &s3.DeleteObjectOutput{}, nil
}
