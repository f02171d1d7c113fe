package advisor

import (
	"fmt"
	"strconv"

	"github.com/codeGROOVE-dev/agrovision/pkg/llm"
)

const translateSystemPrompt = `You are Kisan Mitra, an agricultural assistant for Indian farmers. When asked to translate a model label, you MUST return only valid JSON (no extra commentary) with keys:
- translated_name: a short translated name
- common_name: a local/common name if available (optional)
- short_desc: one-sentence description (optional)
- label: original label

If you cannot translate, return JSON with "translated_name" equal to the original label.`

const treatSystemPrompt = `You are Kisan Mitra, an agricultural assistant for Indian farmers. Provide practical, farmer-friendly treatment options and safety precautions. Return ONLY valid JSON with keys:
- title: short heading
- summary: 1-2 line high-level summary
- treatments: array of steps (each step may be string or object with step, materials, dosage, timing)
- organic_options: array (optional)
- chemical_options: array (optional)
- precautions: short text (optional)

Output must be valid JSON.`

const chatSystemPrompt = `You are Kisan Mitra, a helpful farming assistant. Respond in %s (%s). Provide agricultural advice, crop information, weather guidance, and farming tips. Keep responses clear and farmer-friendly. ONLY answer questions related to Indian agriculture, farming, crop yields, weather patterns affecting Indian farming, agricultural policies in India, and farming techniques relevant to Indian conditions. If asked about any other topics, politely decline to answer and remind that you're specialized in Indian agriculture only. Remember: Respond ONLY in %s language.`

const yieldUserPrompt = `You are an agricultural AI assistant. Based on the following farm parameters, provide a detailed yield estimation:

Crop Type: %s
Season: %s
Land Area: %s hectares
Soil Type: %s
Irrigation: %s
Region: %s

Please provide your response in the following JSON format ONLY (no additional text):
{
  "estimated_yield": "X tons per hectare",
  "total_production": "Y tons",
  "confidence_level": "High/Medium/Low",
  "factors_affecting": ["factor1", "factor2", "factor3"],
  "recommendations": ["recommendation1", "recommendation2", "recommendation3"],
  "market_value_estimate": "₹X - ₹Y per quintal",
  "best_practices": ["practice1", "practice2"],
  "risk_factors": ["risk1", "risk2"]
}

Consider Indian agricultural conditions, typical yields for this crop in this region, season suitability, soil compatibility, and irrigation efficiency.`

// Generation settings per operation.
const (
	translateTemperature = 0.0
	translateMaxTokens   = 256
	treatTemperature     = 0.2
	treatMaxTokens       = 1024
	chatTemperature      = 0.7
	chatMaxTokens        = 1024
	yieldTemperature     = 0.7
	yieldMaxTokens       = 2000
)

func translatePrompt(label string, lang Language) llm.Request {
	return llm.Request{
		System: translateSystemPrompt,
		User: fmt.Sprintf(`Translate the disease label exactly: "%s" into language "%s" (%s). Use plain farmer-friendly wording. Output only valid JSON.`,
			label, lang.Code, lang.Name),
		Temperature:     translateTemperature,
		MaxOutputTokens: translateMaxTokens,
	}
}

func treatPrompt(label string, lang Language) llm.Request {
	return llm.Request{
		System: treatSystemPrompt,
		User: fmt.Sprintf(`Detected disease label: "%s". Provide short, practical treatments suitable for small-hold Indian farmers. Keep language natural and concise. Respond in the requested language: %s. Return JSON only.`,
			label, lang.Name),
		Temperature:     treatTemperature,
		MaxOutputTokens: treatMaxTokens,
	}
}

func chatPrompt(message string, lang Language) llm.Request {
	return llm.Request{
		System:          fmt.Sprintf(chatSystemPrompt, lang.EnglishName, lang.Name, lang.Name),
		User:            message,
		Temperature:     chatTemperature,
		MaxOutputTokens: chatMaxTokens,
	}
}

func yieldPrompt(p FarmParams) llm.Request {
	return llm.Request{
		User: fmt.Sprintf(yieldUserPrompt,
			p.Crop, p.Season, strconv.FormatFloat(p.LandAreaHectares, 'f', -1, 64), p.Soil, p.Irrigation, p.Region),
		Temperature:     yieldTemperature,
		MaxOutputTokens: yieldMaxTokens,
	}
}
