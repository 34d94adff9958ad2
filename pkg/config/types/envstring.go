/*
 * Copyright 2024 The Memwarden Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"os"

	"gopkg.in/yaml.v3"
)

// EnvString is a string that automatically has any environment variable
// references expanded as it is decoded from YAML. For example, if the YAML
// contains
//
//	password: ${REDIS_PASSWORD}
//
// then the decoded value is the value of the REDIS_PASSWORD environment
// variable.
type EnvString string

// UnmarshalYAML decodes the node as a string and expands env var references
func (s *EnvString) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw != "" {
		raw = os.ExpandEnv(raw)
	}
	*s = EnvString(raw)
	return nil
}
