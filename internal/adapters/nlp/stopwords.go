package nlp

// stopWords is the English stop-word list used for the cleaned token count.
// Changing it changes len_tokens, so treat it as part of the lexicon version.
var stopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "almost", "alone", "along",
	"already", "also", "although", "always", "am", "among", "an", "and", "another", "any",
	"anyhow", "anyone", "anything", "anyway", "anywhere", "are", "around", "as", "at", "back",
	"be", "became", "because", "become", "becomes", "been", "before", "being", "below", "beside",
	"besides", "between", "beyond", "both", "but", "by", "ca", "call", "can", "cannot",
	"could", "did", "do", "does", "doing", "done", "down", "due", "during", "each",
	"either", "else", "elsewhere", "enough", "even", "ever", "every", "everyone", "everything", "everywhere",
	"except", "few", "first", "for", "former", "from", "front", "full", "further", "get",
	"give", "go", "had", "has", "have", "he", "hence", "her", "here", "hers",
	"herself", "him", "himself", "his", "how", "however", "i", "if", "in", "indeed",
	"into", "is", "it", "its", "itself", "just", "keep", "last", "least", "less",
	"made", "make", "many", "may", "me", "meanwhile", "might", "mine", "more", "moreover",
	"most", "mostly", "much", "must", "my", "myself", "n't", "name", "namely", "neither",
	"never", "nevertheless", "next", "no", "nobody", "none", "nor", "not", "nothing", "now",
	"nowhere", "of", "off", "often", "on", "once", "one", "only", "onto", "or",
	"other", "others", "otherwise", "our", "ours", "ourselves", "out", "over", "own", "part",
	"per", "perhaps", "please", "put", "quite", "rather", "re", "really", "regarding", "same",
	"say", "see", "seem", "seemed", "seems", "serious", "several", "she", "should", "show",
	"side", "since", "so", "some", "somehow", "someone", "something", "sometime", "sometimes", "somewhere",
	"still", "such", "take", "than", "that", "the", "their", "them", "themselves", "then",
	"there", "thereafter", "thereby", "therefore", "these", "they", "this", "those", "though", "through",
	"throughout", "thus", "to", "together", "too", "top", "toward", "towards", "under", "unless",
	"until", "up", "upon", "us", "used", "using", "various", "very", "via", "was",
	"we", "well", "were", "what", "whatever", "when", "whenever", "where", "whether", "which",
	"while", "who", "whoever", "whole", "whom", "whose", "why", "will", "with", "within",
	"without", "would", "yet", "you", "your", "yours", "yourself", "yourselves",
	"'d", "'ll", "'m", "'re", "'s", "'ve",
}
