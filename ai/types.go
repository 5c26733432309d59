// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

// NodeTypes lists the entity labels the extractor is steered towards.
var NodeTypes = []string{
	"CONCEPT",
	"EVENT",
	"LOCATION",
	"ORGANIZATION",
	"PERSON",
	"PRODUCT",
	"THEORY",
	"WORK",
}

// EdgeTypes lists the relation labels the extractor is steered towards.
var EdgeTypes = []string{
	"AUTHORED",
	"BELONGS_TO",
	"BORN_IN",
	"CHILD_OF",
	"DERIVED_FROM",
	"DESCRIBES",
	"FORMULATED",
	"INFLUENCED",
	"INTRODUCED",
	"KNOWS",
	"LIVED_IN",
	"MENTOR_OF",
	"PART_OF",
	"PROPOSED",
	"PUPIL_OF",
	"REFERENCES",
	"RELATED_TO",
	"SIBLING_OF",
	"SPOUSE_OF",
	"STUDIED_IN",
	"WORKED_AT",
}
