package verify

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/qwex/breedcheck/internal/model"
)

// reviewerPersona is the system-role instruction prepended to every prompt.
const reviewerPersona = `You are an expert in poultry science and an editor for a chicken breed directory. Your task is to review user-submitted chicken breeds for factual accuracy, consistency, and appropriateness. Analyze the provided breed information and determine if it is a legitimate, real-world chicken breed, and if all provided details are consistent and suitable for publication.`

const taskIntro = `Please review the following chicken breed submission and provide your analysis in JSON format.`

const taskInstructions = `Your Task:
Based on the data, provide a JSON object with the following structure. Pay close attention to factual accuracy, consistency between fields (e.g., does the origin make sense for the breed name, is the description consistent with other attributes?), and overall appropriateness for a general audience.`

// verdictSchema describes the exact object the model must return.
var verdictSchema = buildVerdictSchema()

func buildVerdictSchema() string {
	var b strings.Builder
	b.WriteString("{\n")
	b.WriteString(`  "is_real_breed": boolean,` + "\n")
	b.WriteString(`  "confidence_score": float (from 0.0 to 1.0),` + "\n")
	b.WriteString(`  "reasoning": "Provide a brief explanation for your decision regarding factual accuracy and consistency.",` + "\n")
	b.WriteString(`  "is_appropriate": boolean,` + "\n")
	b.WriteString(`  "appropriateness_reasoning": "If inappropriate (e.g., offensive, non-chicken related, or nonsensical), explain why.",` + "\n")
	b.WriteString(`  "corrected_info": {` + "\n")
	for i, f := range model.TrackedFields {
		b.WriteString(`    "` + f + `": "Suggest a corrected ` + f + ` if applicable, otherwise null."`)
		if i < len(model.TrackedFields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  }\n")
	b.WriteString("}")
	return b.String()
}

// BuildPrompt renders a breed record into the review prompt. The record is
// embedded verbatim as indented JSON; its contents are not validated.
func BuildPrompt(rec model.BreedRecord) (string, error) {
	// Called directly: json.Marshal would re-escape HTML characters.
	data, err := rec.Fields.MarshalJSON()
	if err != nil {
		return "", eris.Wrap(err, "prompt: marshal record")
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, data, "", "  "); err != nil {
		return "", eris.Wrap(err, "prompt: indent record")
	}

	var b strings.Builder
	b.WriteString(reviewerPersona)
	b.WriteString("\n\n\n")
	b.WriteString(taskIntro)
	b.WriteString("\n\nBreed Data:\n```json\n")
	b.Write(indented.Bytes())
	b.WriteString("\n```\n\n")
	b.WriteString(taskInstructions)
	b.WriteString("\n\n```json\n")
	b.WriteString(verdictSchema)
	b.WriteString("\n```\n")
	return b.String(), nil
}
