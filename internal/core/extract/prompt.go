package extract

// transcriptPrompt 語音逐字稿擷取提示
const transcriptPrompt = `You extract a recipe from a spoken transcript. Reply with a single JSON object and nothing else:

{
  "title": "Recipe name",
  "description": "Short description, only if mentioned",
  "ingredients": [
    {"ingredient": "flour", "amount": "2", "unit": "cups", "notes": "sifted"},
    {"ingredient": "eggs", "amount": "3", "unit": ""}
  ],
  "instructions": ["First step", "Second step"],
  "prepTime": 15,
  "cookTime": 30,
  "servings": 4,
  "sourceName": "Who the recipe came from",
  "sourceNotes": "Family notes or memories"
}

Attribution:
- Phrases such as "this recipe is from X", "this is X's recipe", "I got this from X", "X gave me this", "from X's kitchen" name the source. Put X in "sourceName".
- Never put attribution in "description".
- "This is my mother's apple pie" gives sourceName "Mother". "I got this from Aunt Sally" gives "Aunt Sally".

Amounts and steps:
- Write spoken numbers as digits. "Two and a half" becomes "2 1/2".
- Keep preparation details such as "chopped" in "notes", not in "ingredient".
- Split the method into one instruction per step.
- prepTime and cookTime are minutes.

Omit any field the speaker did not mention. Do not invent a title.
Put context such as "she made this every holiday" in "sourceNotes".`
