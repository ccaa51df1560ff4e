package engine

import (
	"fmt"
	"strings"

	"github.com/evotone-audio/evotone-api/internal/models"
)

// RenderCode renders a parameter set as the executable snippet the playback
// collaborator consumes (a Tone.js-style program). The core only guarantees
// the string is a faithful textual rendering; scheduling is the player's job.
func RenderCode(params models.MusicParameters) string {
	var b strings.Builder

	fmt.Fprintf(&b, "// evotone generation — %s, %s, %.0f BPM\n", params.Key, params.TimeSignature, params.Tempo)
	fmt.Fprintf(&b, "Tone.Transport.bpm.value = %.1f;\n", params.Tempo)
	fmt.Fprintf(&b, "Tone.Transport.timeSignature = [%d, %d];\n\n", params.TimeSignature.Beats, params.TimeSignature.Unit)

	fmt.Fprintf(&b, "const reverb = new Tone.Freeverb({ roomSize: %.2f, dampening: %.2f, wet: %.2f });\n",
		params.Effects.Reverb.RoomSize, params.Effects.Reverb.Dampening, params.Effects.Reverb.Wet)
	fmt.Fprintf(&b, "const delay = new Tone.FeedbackDelay({ delayTime: %q, feedback: %.2f, wet: %.2f });\n",
		params.Effects.Delay.Time, params.Effects.Delay.Feedback, params.Effects.Delay.Wet)
	fmt.Fprintf(&b, "const filter = new Tone.Filter({ frequency: %.0f, type: %q, rolloff: %d });\n\n",
		params.Effects.Filter.Cutoff, params.Effects.Filter.Type, params.Effects.Filter.Rolloff)

	for i, v := range params.Synths {
		fmt.Fprintf(&b, "const synth%d = new Tone.Synth({ // %s\n", i, v.Role)
		fmt.Fprintf(&b, "  oscillator: { type: %q },\n", v.Oscillator)
		fmt.Fprintf(&b, "  envelope: { attack: %.3f, decay: %.3f, sustain: %.2f, release: %.3f },\n",
			v.Envelope.Attack, v.Envelope.Decay, v.Envelope.Sustain, v.Envelope.Release)
		fmt.Fprintf(&b, "  volume: %.1f,\n", v.Volume)
		fmt.Fprintf(&b, "}).chain(filter, delay, reverb, Tone.Destination);\n")
	}
	b.WriteString("\n")

	for i, p := range params.Patterns {
		fmt.Fprintf(&b, "const pattern%d = [ // %s\n", i, p.Name)
		for s := 0; s < p.Len(); s++ {
			fmt.Fprintf(&b, "  { note: %q, duration: %q, velocity: %.2f, offset: %.3f },\n",
				p.Notes[s], p.Durations[s], p.Velocities[s], p.Offsets[s])
		}
		b.WriteString("];\n")
	}

	fmt.Fprintf(&b, "\n// scale: [%s]\n", strings.Join(params.Scale, " "))
	return b.String()
}
