// Package textutil provides text helpers shared by the icon resolver and the
// pipeline: name normalization, file stems and a Ratcliff/Obershelp
// similarity ratio.
//
// Names are normalized with NFKC and Unicode case folding before comparison
// so catalog keys written in different styles ("Money Bag", "money-bag",
// "MONEY_BAG") land on the same key.
package textutil
