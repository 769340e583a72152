/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package model

import "github.com/litefab/litefab/internal/canonical"

func canonicalStructFields(v interface{}) []byte {
	return canonical.MarshalStruct(v)
}
