// Package gemini implements the Google Gemini generateContent adapter.
//
// Requests go to {base}/models/{model}:generateContent with the API key in
// the key query parameter. Assistant turns are sent with the "model" role and
// system turns become the systemInstruction. Replies are read as
// providers.ShapeGemini.
package gemini
