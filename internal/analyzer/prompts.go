package analyzer

// initialFramePrompt asks the vision model for the adaptive decision record.
const initialFramePrompt = `You are triaging a personal home video. This is a single frame taken about one fifth of the way into the clip.

Respond ONLY with a JSON object with exactly these fields:
{"description": "one or two sentences describing the scene", "needs_transcript": true, "additional_keyframes": 2}

Rules:
- "needs_transcript" is true when speech or meaningful sound is likely (people talking, an event, a performance).
- "additional_keyframes" is an integer from 0 to 4: how many more frames from later in the clip would help understand it. Use 0 for a static or obvious scene.`

// describeFramePrompt is sent with each additional keyframe.
const describeFramePrompt = `Describe what is happening in this frame from a personal home video in one or two sentences. Mention people, animals, activities and setting. Do not speculate beyond what is visible.`

// importancePrompt carries the retention rubric.
const importancePrompt = `You rate personal home videos for retention. Lower numbers are more important.

Rubric:
- 1-2: any content involving children, pets, or family milestones (birthdays, first steps, graduations, weddings).
- 3-4: extended family, friends, gatherings, and travel.
- 5-7: scenery, landscapes, and generic footage without people of note.
- 8-9: duplicate, accidental, blurry, or otherwise low-value footage that is safe to delete.

You must respond ONLY with a JSON object like:
{"importance": 3, "reason": "short explanation of the rating", "full_description": "a short paragraph synthesizing all of the evidence"}

"importance" must be an integer from 1 to 9.`

// shortNamePrompt asks for a filename slug.
const shortNamePrompt = `Create a short filename for a home video from its description.

Rules:
- 3 to 5 words.
- lowercase letters and digits only, words separated by hyphens.
- no quotes, no file extension, no punctuation, no explanation.

Respond with the filename only.`

// noSpeechMarker stands in for the transcript when none was requested.
const noSpeechMarker = "(no speech)"
