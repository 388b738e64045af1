// Package catalog holds the static material behind the browse views: the
// pool of well-known artists sampled by the discovery grid and the genre list
// with its Last.fm tag mapping.
package catalog

import "github.com/vsoeiu/LegatumM/pkg/music"

// Pool is the candidate list for the discovery grid.
var Pool = []string{
	"Kendrick Lamar", "The Weeknd", "Arctic Monkeys", "Dua Lipa", "Bad Bunny",
	"Coldplay", "Eminem", "Feid", "Guns N' Roses", "Harry Styles",
	"Imagine Dragons", "J Balvin", "Karol G", "Luis Miguel", "Shakira",
	"Taylor Swift", "Bruno Mars", "Ariana Grande", "Billie Eilish", "Drake",
	"Ed Sheeran", "Post Malone", "Rihanna", "Justin Bieber", "Katy Perry",
	"Queen", "Metallica", "AC/DC", "Daddy Yankee", "Rosalía",
	"Maluma", "BTS", "Blackpink", "Anuel AA", "Ozuna",
	"Juanes", "Cafe Tacvba", "Soda Stereo", "Panteón Rococó", "Mana",
	"Reik", "Zoé", "Caifanes", "Molotov", "Enjambre",
	"Siddhartha", "Camilo", "Rauw Alejandro", "Wisin y Yandel", "Don Omar",
	"Tego Calderón", "50 Cent", "Snoop Dogg", "Dr. Dre", "Jay-Z",
	"Kanye West", "Travis Scott", "Linkin Park", "Red Hot Chili Peppers",
	"Nirvana", "Foo Fighters", "Green Day", "Blink-182", "The Beatles",
	"Pink Floyd", "Led Zeppelin", "Rolling Stones", "U2", "Bon Jovi",
	"Aerosmith", "Scorpions", "Iron Maiden", "Judas Priest", "Black Sabbath",
	"Ozzy Osbourne", "Miley Cyrus", "SZA", "Olivia Rodrigo", "Doja Cat",
	"Lana Del Rey", "The Strokes", "Tame Impala", "Gorillaz", "Daft Punk",
	"David Bowie", "Prince", "Michael Jackson", "Madonna", "Britney Spears",
	"System of a Down", "Radiohead", "Muse", "Florence + The Machine",
	"Depeche Mode", "The Cure", "New Order", "Joy Division", "Pearl Jam",
	"Soundgarden", "Alice in Chains", "Stone Temple Pilots", "Rammstein",
	"Justice", "The Chemical Brothers", "The Prodigy", "Massive Attack",
	"Portishead", "Bjork", "Aphex Twin", "Boards of Canada", "Kraftwerk",
}

// Genres is the display order of the genre list.
var Genres = []string{
	"Rock", "Pop", "Hip Hop", "Reggaeton", "Jazz",
	"Electronic", "Metal", "Latin", "K-Pop", "Indie",
	"RnB", "Country", "Classical", "Trap", "Disco", "Blues",
}

// Tags maps display genres to Last.fm tags. Genres missing here use their
// lowercase name.
var Tags = map[string]string{
	"Hip Hop": "hip-hop", "Reggaeton": "reggaeton", "K-Pop": "kpop",
	"RnB": "rnb", "Latin": "latin", "Electronic": "electronic",
	"Indie": "indie", "Metal": "metal", "Rock": "rock",
	"Pop": "pop", "Jazz": "jazz", "Country": "country",
	"Classical": "classical", "Trap": "trap", "Disco": "disco",
}

// BrowseData returns copies of the static lists ready for music.NewBrowser.
func BrowseData() music.BrowseData {
	tags := make(map[string]string, len(Tags))
	for k, v := range Tags {
		tags[k] = v
	}
	return music.BrowseData{
		Pool:   append([]string{}, Pool...),
		Genres: append([]string{}, Genres...),
		Tags:   tags,
	}
}
