// Copyright (c) 2018-2022 California Institute of Technology (“Caltech”). U.S.
// Government sponsorship acknowledged.
// All rights reserved.
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are
// met:
//
// * Redistributions of source code must retain the above copyright notice, this
//   list of conditions and the following disclaimer.
// * Redistributions in binary form must reproduce the above copyright notice,
//   this list of conditions and the following disclaimer in the documentation
//   and/or other materials provided with the distribution.
// * Neither the name of Caltech nor its operating division, the Jet Propulsion
//   Laboratory, nor the names of its contributors may be used to endorse or
//   promote products derived from this software without specific prior written
//   permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT OWNER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package fileaccess

import (
	"bytes"
	"testing"
)

func TestFSAccessReadWrite(t *testing.T) {
	fs := &FSAccess{}
	bucket := t.TempDir()

	if err := fs.WriteObject(bucket, "site7/mesh.json", []byte("mesh-bytes")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := fs.ReadObject(bucket, "site7/mesh.json")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(data, []byte("mesh-bytes")) {
		t.Errorf("read back %q, expected mesh-bytes", data)
	}

	_, err = fs.ReadObject(bucket, "site7/missing.json")
	if err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	if !fs.IsNotFoundError(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestFSAccessJSON(t *testing.T) {
	fs := &FSAccess{}
	bucket := t.TempDir()

	type record struct {
		Name string
	}

	if err := fs.WriteJSON(bucket, "r.json", &record{Name: "navcam"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got := record{}
	if err := fs.ReadJSON(bucket, "r.json", &got, false); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.Name != "navcam" {
		t.Errorf("round trip: got %+v", got)
	}

	empty := record{}
	if err := fs.ReadJSON(bucket, "missing.json", &empty, true); err != nil {
		t.Errorf("emptyIfNotFound read failed: %v", err)
	}
}

func TestMakeValidObjectName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"NLB_521396095EDR_F0933408NCAM00295M1", "NLB_521396095EDR_F0933408NCAM00295M1"},
		{"obs/with/slashes", "obs_with_slashes"},
		{"what?!#$", "what"},
	}
	for _, tc := range tests {
		if got := MakeValidObjectName(tc.name); got != tc.want {
			t.Errorf("%q: got %q, expected %q", tc.name, got, tc.want)
		}
	}
}
