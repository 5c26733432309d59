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

package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/corpora/ai"
)

const extractionResponseSchema = `{
  "type": "object",
  "properties": {
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string", "pattern": "^[a-z0-9]+(_[a-z0-9]+)*$"},
          "type": {"type": "string"},
          "title": {"type": "string"},
          "properties": {"type": "object", "additionalProperties": {"type": "string"}}
        },
        "required": ["id", "type", "title"]
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "from": {"type": "string"},
          "to": {"type": "string"},
          "type": {"type": "string"}
        },
        "required": ["from", "to", "type"]
      }
    }
  },
  "required": ["nodes", "edges"]
}`

const extractionPromptTemplate = `You are an information-extraction agent. Extract the entities mentioned in the
given text and the relations between them, and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Node "id" must be lower_snake_case (underscores, no spaces or hyphens) and unique within the response.
- Node "type" must be one of the allowed node labels: %s. If none fits, use NEW_<LABEL>.
- Edge "type" must be one of the allowed edge labels: %s. If none fits, use NEW_<LABEL>.
- Edge "from" and "to" must be ids of nodes in the same response.
- "title" is the display name of the entity as written in the text.
- Put short facts about an entity (dates, roles, descriptions) in "properties" as strings.
- Include only entities explicitly mentioned or clearly implied by the text. Do not hallucinate.
- If nothing can be extracted, return {"nodes": [], "edges": []}.

Example:
Input: "Leonhard Euler introduced Euler's Identity in 1748."
Output:
{
  "nodes": [
    {"id":"leonhard_euler","type":"PERSON","title":"Leonhard Euler","properties":{"born":"1707"}},
    {"id":"eulers_identity","type":"THEORY","title":"Euler's Identity","properties":{"year_introduced":"1748"}}
  ],
  "edges": [
    {"from":"leonhard_euler","to":"eulers_identity","type":"INTRODUCED"}
  ]
}`

// buildSystemPrompt creates the system prompt with the label vocabularies embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(ai.NodeTypes, ", "),
		strings.Join(ai.EdgeTypes, ", "))
}
